package services

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/careerarchitect/backend/internal/cache"
	"github.com/careerarchitect/backend/internal/models"
	"github.com/careerarchitect/backend/internal/providers/analyzer"
	mongorepo "github.com/careerarchitect/backend/internal/repositories/mongo"
	pgrepo "github.com/careerarchitect/backend/internal/repositories/postgres"
	"github.com/careerarchitect/backend/internal/utils"
)

const historyCacheTTL = 60 * time.Second

// SubmitInput is one inbound submission. FirebaseUID may be empty: the
// resulting analysis is then anonymous.
type SubmitInput struct {
	FileBytes      []byte
	Filename       string
	JobDescription string
	Kind           models.AnalysisType
	FirebaseUID    string
	Email          string
}

type HistoryResult struct {
	Total    int               `json:"total"`
	Analyses []models.Analysis `json:"analyses"`
}

type AnalysisService interface {
	Submit(ctx context.Context, in SubmitInput) (map[string]any, error)
	History(ctx context.Context, firebaseUID string) (*HistoryResult, error)
	Events(ctx context.Context, firebaseUID string) ([]models.SubmissionEvent, error)
	Delete(ctx context.Context, analysisID, firebaseUID string) error
}

// Archiver receives accepted uploads for background archival. Enqueue must
// never block; a false return means the upload was dropped.
type Archiver interface {
	Enqueue(objectName, contentType string, data []byte) bool
}

type analysisService struct {
	analyses pgrepo.AnalysisRepository
	users    UserService
	ai       analyzer.Client

	events  mongorepo.EventRepository // optional
	cache   cache.Cache               // optional
	archive Archiver                  // optional

	log *logrus.Logger
}

type AnalysisServiceDeps struct {
	Analyses pgrepo.AnalysisRepository
	Users    UserService
	AI       analyzer.Client
	Events   mongorepo.EventRepository
	Cache    cache.Cache
	Archive  Archiver
	Logger   *logrus.Logger
}

func NewAnalysisService(d AnalysisServiceDeps) AnalysisService {
	if d.Logger == nil {
		d.Logger = logrus.New()
	}
	return &analysisService{
		analyses: d.Analyses,
		users:    d.Users,
		ai:       d.AI,
		events:   d.Events,
		cache:    d.Cache,
		archive:  d.Archive,
		log:      d.Logger,
	}
}

func (s *analysisService) Submit(ctx context.Context, in SubmitInput) (map[string]any, error) {
	const op = "AnalysisService.Submit"

	if in.Kind == "" {
		in.Kind = models.AnalysisTypeResume
	}
	if len(in.FileBytes) == 0 {
		s.recordEvent(in, models.OutcomeRejected, 0, "")
		return nil, utils.E(utils.CodeInvalidArgument, op, "File is empty", nil)
	}

	// Identify. Anonymous submissions proceed without a user.
	var user *models.User
	if uid := strings.TrimSpace(in.FirebaseUID); uid != "" {
		u, err := s.users.FindOrCreate(ctx, uid, strings.TrimSpace(in.Email))
		if err != nil {
			return nil, err
		}
		user = u
	}

	// Forward to the AI service. Nothing is persisted on any failure here.
	res, err := s.ai.Analyze(ctx, analyzer.SubmitRequest{
		FileBytes:      in.FileBytes,
		Filename:       in.Filename,
		JobDescription: in.JobDescription,
		Kind:           in.Kind,
	})
	if err != nil {
		s.recordEvent(in, outcomeFor(err), 0, "")
		return nil, s.classifySubmitError(op, err)
	}

	norm := analyzer.Normalize(res)

	row := &models.Analysis{
		ID:               uuid.NewString(),
		CandidateName:    norm.CandidateName,
		OverallScore:     norm.Score,
		FullAnalysisJSON: datatypes.JSON(res.Raw),
		ResumeFilename:   in.Filename,
		AnalysisType:     in.Kind,
		AnalysisVersion:  models.AnalysisVersion,
		AIModel:          models.AIModel,
		SkillHighlights:  norm.SkillHighlights,
		CreatedAt:        time.Now().UTC(),
	}
	if user != nil {
		row.UserID = &user.ID
	}
	if jd := strings.TrimSpace(in.JobDescription); jd != "" && in.Kind != models.AnalysisTypeLinkedIn {
		row.JobDescription = &jd
	}

	if err := s.analyses.Insert(ctx, row); err != nil {
		s.recordEvent(in, models.OutcomePersistFailed, norm.Score, "")
		return nil, utils.E(utils.CodeInternal, op, "failed to save analysis", err)
	}

	// Stats are best-effort once the analysis row is durable.
	if user != nil {
		if err := s.users.RecordAnalysis(ctx, user.ID, norm.Score); err != nil {
			s.log.WithError(err).WithField("user_id", user.ID).Warn("stat update failed")
		}
		s.invalidateHistory(user.FirebaseUID)
	}

	s.recordEvent(in, models.OutcomeSaved, norm.Score, row.ID)
	s.enqueueArchive(user, row, in.FileBytes)

	out := res.Fields
	out["analysis_id"] = row.ID
	out["analysis_type"] = string(in.Kind)
	out["saved_to_database"] = true
	return out, nil
}

func (s *analysisService) classifySubmitError(op string, err error) error {
	var ue *analyzer.UpstreamError
	switch {
	case errors.Is(err, analyzer.ErrUnreachable):
		return utils.E(utils.CodeUnavailable, op, "AI analysis service is unavailable, please try again later", err)
	case errors.Is(err, analyzer.ErrEmptyResponse):
		return utils.E(utils.CodeBadGateway, op, "AI returned empty response", err)
	case errors.As(err, &ue):
		if ue.ClientError() {
			// 4xx bodies pass through to the caller verbatim.
			return err
		}
		return utils.E(utils.CodeInternal, op, "AI analysis failed", err)
	default:
		return utils.E(utils.CodeInternal, op, "AI analysis failed", err)
	}
}

func outcomeFor(err error) string {
	var ue *analyzer.UpstreamError
	switch {
	case errors.Is(err, analyzer.ErrEmptyResponse):
		return models.OutcomeEmptyAIResponse
	case errors.As(err, &ue) && ue.ClientError():
		return models.OutcomeUpstreamRejected
	default:
		return models.OutcomeUpstreamFailed
	}
}

// recordEvent writes an audit document, detached from the request so a slow
// Mongo never delays the response.
func (s *analysisService) recordEvent(in SubmitInput, outcome string, score int, analysisID string) {
	if s.events == nil {
		return
	}
	ev := &models.SubmissionEvent{
		FirebaseUID:  strings.TrimSpace(in.FirebaseUID),
		Filename:     in.Filename,
		AnalysisType: string(in.Kind),
		Outcome:      outcome,
		Score:        score,
		AnalysisID:   analysisID,
		Timestamp:    time.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.events.Insert(ctx, ev); err != nil {
			s.log.WithError(err).Warn("submission event insert failed")
		}
	}()
}

func (s *analysisService) enqueueArchive(user *models.User, row *models.Analysis, data []byte) {
	if s.archive == nil {
		return
	}
	owner := "anonymous"
	if user != nil {
		owner = user.ID
	}
	objectName := "resumes/" + owner + "/" + row.ID + path.Ext(row.ResumeFilename)
	ct := http.DetectContentType(data)
	if !s.archive.Enqueue(objectName, ct, data) {
		s.log.WithField("analysis_id", row.ID).Warn("archive queue full, upload dropped")
	}
}

func (s *analysisService) History(ctx context.Context, firebaseUID string) (*HistoryResult, error) {
	const op = "AnalysisService.History"

	user, err := s.users.Lookup(ctx, firebaseUID)
	if err != nil {
		return nil, err
	}

	key := historyKey(firebaseUID)
	if s.cache != nil {
		var cached HistoryResult
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	rows, err := s.analyses.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list analyses", err)
	}

	result := &HistoryResult{Total: len(rows), Analyses: rows}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, result, historyCacheTTL); err != nil {
			s.log.WithError(err).Warn("history cache set failed")
		}
	}
	return result, nil
}

const eventListLimit = 50

// Events returns the caller's recent submission attempts, newest first,
// including rejected and failed ones that never produced an analysis row.
func (s *analysisService) Events(ctx context.Context, firebaseUID string) ([]models.SubmissionEvent, error) {
	const op = "AnalysisService.Events"

	if firebaseUID == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "identity is required", nil)
	}
	if s.events == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "audit trail is not enabled", nil)
	}

	evs, err := s.events.ListByUser(ctx, firebaseUID, eventListLimit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list submission events", err)
	}
	return evs, nil
}

func (s *analysisService) Delete(ctx context.Context, analysisID, firebaseUID string) error {
	const op = "AnalysisService.Delete"

	if analysisID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "analysis id is required", nil)
	}
	if firebaseUID == "" {
		return utils.E(utils.CodeUnauthorized, op, "identity is required", nil)
	}

	row, err := s.analyses.GetByID(ctx, analysisID)
	if errors.Is(err, utils.ErrNotFound) {
		return utils.E(utils.CodeNotFound, op, "Analysis not found", err)
	}
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to load analysis", err)
	}

	// Ownerless rows and ownership mismatches both deny. This deliberately
	// reveals existence; see DESIGN.md.
	if row.UserID == nil {
		return utils.E(utils.CodeForbidden, op, "Access denied", nil)
	}
	owner, err := s.users.ByID(ctx, *row.UserID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to load analysis owner", err)
	}
	if owner.FirebaseUID != firebaseUID {
		return utils.E(utils.CodeForbidden, op, "Access denied", nil)
	}

	if err := s.analyses.Delete(ctx, analysisID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete analysis", err)
	}

	s.invalidateHistory(firebaseUID)
	return nil
}

func (s *analysisService) invalidateHistory(firebaseUID string) {
	if s.cache == nil || firebaseUID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cache.Del(ctx, historyKey(firebaseUID)); err != nil {
		s.log.WithError(err).Warn("history cache invalidation failed")
	}
}

func historyKey(firebaseUID string) string {
	return "history:" + firebaseUID
}
