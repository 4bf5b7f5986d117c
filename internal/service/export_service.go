package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"classboard/internal/domain"
	"classboard/internal/repository"
	"classboard/internal/scoring"
)

var rankingHeader = []string{"rank", "team_id", "team_name", "peer_score", "teacher_score", "combined_score"}

// ExportService renders a session's rankings and raw votes for download.
type ExportService struct {
	sessions *SessionService
	scores   *ScoreService
	teams    repository.TeamRepository
	logger   *zap.Logger
}

func NewExportService(sessions *SessionService, scores *ScoreService, teams repository.TeamRepository, logger *zap.Logger) *ExportService {
	return &ExportService{sessions: sessions, scores: scores, teams: teams, logger: logger}
}

// SessionExport is everything a download contains.
type SessionExport struct {
	Session   *domain.Session
	Standings []domain.Standing
	Votes     *VoteSet
	TeamNames map[string]string
}

// Load gathers the data of an export. Only teams with votes are ranked.
func (s *ExportService) Load(ctx context.Context, classID, sessionID string) (*SessionExport, error) {
	session, err := s.sessions.GetSession(ctx, classID, sessionID)
	if err != nil {
		return nil, err
	}
	key := domain.SessionKey{ClassID: classID, SessionID: sessionID}

	var (
		rows  map[string]*domain.AggregateRow
		votes *VoteSet
		teams []domain.Team
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, votes, err = s.scores.aggregate(gctx, key, session.Categories, session.Weighting)
		return err
	})
	g.Go(func() error {
		var err error
		teams, err = s.teams.ListTeams(gctx, classID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}
	return &SessionExport{
		Session:   session,
		Standings: scoring.Rank(rows),
		Votes:     votes,
		TeamNames: names,
	}, nil
}

// CSV renders the rankings sheet as CSV.
func (s *ExportService) CSV(ctx context.Context, classID, sessionID string) ([]byte, error) {
	exp, err := s.Load(ctx, classID, sessionID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(rankingHeader); err != nil {
		return nil, err
	}
	for _, row := range exp.rankingRows() {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// XLSX renders a workbook with a Rankings sheet. A Votes sheet follows
// only when the session has at least one vote.
func (s *ExportService) XLSX(ctx context.Context, classID, sessionID string) ([]byte, error) {
	exp, err := s.Load(ctx, classID, sessionID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("failed to close workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName("Sheet1", "Rankings"); err != nil {
		return nil, err
	}
	if err := writeSheet(f, "Rankings", toCells(rankingHeader), exp.rankingCells()); err != nil {
		return nil, err
	}

	if len(exp.Votes.Peer)+len(exp.Votes.Teacher) > 0 {
		if _, err := f.NewSheet("Votes"); err != nil {
			return nil, err
		}
		if err := writeSheet(f, "Votes", toCells(exp.voteHeader()), exp.voteCells()); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *SessionExport) teamName(id string) string {
	if name, ok := e.TeamNames[id]; ok {
		return name
	}
	return id
}

func (e *SessionExport) rankingRows() [][]string {
	out := make([][]string, 0, len(e.Standings))
	for _, st := range e.Standings {
		out = append(out, []string{
			strconv.Itoa(st.Rank),
			st.TeamID,
			e.teamName(st.TeamID),
			strconv.Itoa(st.PeerSum),
			strconv.Itoa(st.TeacherSum),
			strconv.Itoa(st.Combined),
		})
	}
	return out
}

func (e *SessionExport) rankingCells() [][]interface{} {
	out := make([][]interface{}, 0, len(e.Standings))
	for _, st := range e.Standings {
		out = append(out, []interface{}{st.Rank, st.TeamID, e.teamName(st.TeamID), st.PeerSum, st.TeacherSum, st.Combined})
	}
	return out
}

func (e *SessionExport) voteHeader() []string {
	header := []string{"voter_id", "team_id", "team_name", "vote_type", "created_at", "updated_at"}
	for _, c := range e.Session.Categories {
		header = append(header, "rating_"+c.ID)
	}
	return header
}

func (e *SessionExport) voteCells() [][]interface{} {
	out := make([][]interface{}, 0, len(e.Votes.Peer)+len(e.Votes.Teacher))
	row := func(voter, team, kind string, created, updated time.Time, ratings domain.Ratings) []interface{} {
		cells := []interface{}{voter, team, e.teamName(team), kind, created.Format(time.RFC3339), updated.Format(time.RFC3339)}
		for _, c := range e.Session.Categories {
			cells = append(cells, ratings[c.ID])
		}
		return cells
	}
	for _, v := range e.Votes.Peer {
		out = append(out, row(v.UserID, v.TeamID, "peer", v.CreatedAt, v.UpdatedAt, v.Ratings))
	}
	for _, v := range e.Votes.Teacher {
		out = append(out, row(v.UserID, v.TeamID, "teacher", v.CreatedAt, v.UpdatedAt, v.Ratings))
	}
	return out
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}
	return nil
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
