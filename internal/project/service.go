package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/splinetool/splinetool/internal/auth"
	"github.com/splinetool/splinetool/internal/db"
	"github.com/splinetool/splinetool/internal/document"
	"github.com/splinetool/splinetool/internal/scene"
	"github.com/splinetool/splinetool/internal/typeid"
)

var (
	ErrNotFound     = errors.New("project not found")
	ErrForbidden    = errors.New("forbidden")
	ErrNotMember    = errors.New("not a project member")
	ErrInvalidScene = errors.New("invalid scene")
	ErrInvalidRole  = errors.New("role must be editor or viewer")
)

// Store is the subset of db.Queries the service needs.
type Store interface {
	CreateProject(ctx context.Context, arg db.CreateProjectParams) (db.Project, error)
	GetProject(ctx context.Context, id string) (db.Project, error)
	ListProjectsForUser(ctx context.Context, userID string) ([]db.Project, error)
	TouchProject(ctx context.Context, id string) error
	DeleteProject(ctx context.Context, id string) error
	AddProjectMember(ctx context.Context, arg db.AddProjectMemberParams) error
	GetProjectMember(ctx context.Context, arg db.GetProjectMemberParams) (db.ProjectMember, error)
	ListProjectMembers(ctx context.Context, projectID string) ([]db.ListProjectMembersRow, error)
	RemoveProjectMember(ctx context.Context, arg db.RemoveProjectMemberParams) error
	GetUserByEmail(ctx context.Context, email string) (db.User, error)
	CreateSnapshot(ctx context.Context, arg db.CreateSnapshotParams) (db.Snapshot, error)
	AppendSnapshot(ctx context.Context, id, projectID string, document []byte) (db.Snapshot, error)
	GetLatestSnapshot(ctx context.Context, projectID string) (db.Snapshot, error)
}

type Service struct {
	queries  Store
	canvas   document.Canvas
	timeline document.Timeline
}

// NewService creates a project service. New projects start with an empty
// scene on canvas with timeline.
func NewService(queries Store, canvas document.Canvas, timeline document.Timeline) *Service {
	return &Service{queries: queries, canvas: canvas, timeline: timeline}
}

type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	OwnerID     string `json:"ownerId"`
	FPS         int    `json:"fps"`
	TotalFrames int    `json:"totalFrames"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type Member struct {
	UserID      string `json:"userId"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

func (s *Service) Create(ctx context.Context, name, ownerID string) (*Project, error) {
	projectID := typeid.NewProjectID()
	tl := document.NewScene(s.timeline).Timeline

	dbProj, err := s.queries.CreateProject(ctx, db.CreateProjectParams{
		ID:          projectID,
		Name:        name,
		OwnerID:     ownerID,
		Fps:         int32(tl.FPS),
		TotalFrames: int32(tl.TotalFrames),
		Width:       int32(s.canvas.Width),
		Height:      int32(s.canvas.Height),
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	// Add owner as member
	err = s.queries.AddProjectMember(ctx, db.AddProjectMemberParams{
		ProjectID: projectID,
		UserID:    ownerID,
		Role:      db.ProjectRoleOwner,
	})
	if err != nil {
		return nil, fmt.Errorf("add owner as member: %w", err)
	}

	// Seed empty scene snapshot
	sceneJSON, err := scene.EncodeJSON(document.NewScene(tl), s.canvas)
	if err != nil {
		return nil, err
	}
	_, err = s.queries.CreateSnapshot(ctx, db.CreateSnapshotParams{
		ID:        typeid.NewSnapshotID(),
		ProjectID: projectID,
		Version:   1,
		Document:  sceneJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return dbProjectToProject(dbProj), nil
}

func (s *Service) Get(ctx context.Context, projectID, userID string) (*Project, error) {
	if _, err := s.checkMembership(ctx, projectID, userID); err != nil {
		return nil, err
	}

	dbProj, err := s.queries.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	return dbProjectToProject(dbProj), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Project, error) {
	dbProjects, err := s.queries.ListProjectsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]Project, len(dbProjects))
	for i, p := range dbProjects {
		projects[i] = *dbProjectToProject(p)
	}

	return projects, nil
}

func (s *Service) Delete(ctx context.Context, projectID, userID string) error {
	if err := s.checkOwner(ctx, projectID, userID); err != nil {
		return err
	}
	return s.queries.DeleteProject(ctx, projectID)
}

// InviteByEmail adds an existing user to the project. An empty role
// invites an editor; viewers may watch sessions but not edit.
func (s *Service) InviteByEmail(ctx context.Context, projectID, ownerID, inviteeEmail string, role db.ProjectRole) error {
	switch role {
	case "":
		role = db.ProjectRoleEditor
	case db.ProjectRoleEditor, db.ProjectRoleViewer:
	default:
		return ErrInvalidRole
	}
	if err := s.checkOwner(ctx, projectID, ownerID); err != nil {
		return err
	}

	invitee, err := s.queries.GetUserByEmail(ctx, inviteeEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	return s.queries.AddProjectMember(ctx, db.AddProjectMemberParams{
		ProjectID: projectID,
		UserID:    invitee.ID,
		Role:      role,
	})
}

func (s *Service) ListMembers(ctx context.Context, projectID, userID string) ([]Member, error) {
	if _, err := s.checkMembership(ctx, projectID, userID); err != nil {
		return nil, err
	}

	dbMembers, err := s.queries.ListProjectMembers(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	members := make([]Member, len(dbMembers))
	for i, m := range dbMembers {
		members[i] = Member{
			UserID:      m.UserID,
			Role:        string(m.Role),
			DisplayName: m.DisplayName,
			Email:       m.Email,
		}
	}

	return members, nil
}

func (s *Service) RemoveMember(ctx context.Context, projectID, ownerID, targetUserID string) error {
	if err := s.checkOwner(ctx, projectID, ownerID); err != nil {
		return err
	}

	if targetUserID == ownerID {
		return errors.New("cannot remove project owner")
	}

	return s.queries.RemoveProjectMember(ctx, db.RemoveProjectMemberParams{
		ProjectID: projectID,
		UserID:    targetUserID,
	})
}

func (s *Service) GetLatestSnapshot(ctx context.Context, projectID, userID string) (json.RawMessage, error) {
	if _, err := s.checkMembership(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return s.LatestScene(ctx, projectID)
}

// LatestScene returns the newest scene JSON of a project without checking
// membership.
func (s *Service) LatestScene(ctx context.Context, projectID string) (json.RawMessage, error) {
	snap, err := s.queries.GetLatestSnapshot(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap.Document, nil
}

// SaveSnapshot stores sceneJSON as the project's next version. Viewers may
// not save.
func (s *Service) SaveSnapshot(ctx context.Context, projectID, userID string, sceneJSON []byte) (int, error) {
	m, err := s.checkMembership(ctx, projectID, userID)
	if err != nil {
		return 0, err
	}
	if m.Role == db.ProjectRoleViewer {
		return 0, ErrForbidden
	}
	return s.StoreScene(ctx, projectID, sceneJSON)
}

// StoreScene validates sceneJSON and stores it as the project's next
// version without checking membership. It returns the new version.
func (s *Service) StoreScene(ctx context.Context, projectID string, sceneJSON []byte) (int, error) {
	var f scene.File
	if err := json.Unmarshal(sceneJSON, &f); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}

	snap, err := s.queries.AppendSnapshot(ctx, typeid.NewSnapshotID(), projectID, sceneJSON)
	if err != nil {
		return 0, fmt.Errorf("append snapshot: %w", err)
	}
	if err := s.queries.TouchProject(ctx, projectID); err != nil {
		return 0, fmt.Errorf("touch project: %w", err)
	}
	return int(snap.Version), nil
}

// CanEdit reports whether userID may edit the project.
func (s *Service) CanEdit(ctx context.Context, projectID, userID string) error {
	m, err := s.checkMembership(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if m.Role == db.ProjectRoleViewer {
		return ErrForbidden
	}
	return nil
}

func (s *Service) checkOwner(ctx context.Context, projectID, userID string) error {
	dbProj, err := s.queries.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get project: %w", err)
	}
	if dbProj.OwnerID != userID {
		return ErrForbidden
	}
	return nil
}

func (s *Service) checkMembership(ctx context.Context, projectID, userID string) (db.ProjectMember, error) {
	m, err := s.queries.GetProjectMember(ctx, db.GetProjectMemberParams{
		ProjectID: projectID,
		UserID:    userID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return m, ErrNotMember
		}
		return m, fmt.Errorf("check membership: %w", err)
	}
	return m, nil
}

func dbProjectToProject(p db.Project) *Project {
	return &Project{
		ID:          p.ID,
		Name:        p.Name,
		OwnerID:     p.OwnerID,
		FPS:         int(p.Fps),
		TotalFrames: int(p.TotalFrames),
		Width:       int(p.Width),
		Height:      int(p.Height),
		CreatedAt:   p.CreatedAt.Time.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   p.UpdatedAt.Time.Format("2006-01-02T15:04:05Z"),
	}
}
