package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx runs the queries inside tx.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

type ProjectRole string

const (
	ProjectRoleOwner  ProjectRole = "owner"
	ProjectRoleEditor ProjectRole = "editor"
	ProjectRoleViewer ProjectRole = "viewer"
)

type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	CreatedAt   pgtype.Timestamptz
}

type Project struct {
	ID          string
	Name        string
	OwnerID     string
	Fps         int32
	TotalFrames int32
	Width       int32
	Height      int32
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

type ProjectMember struct {
	ProjectID string
	UserID    string
	Role      ProjectRole
}

type Snapshot struct {
	ID        string
	ProjectID string
	Version   int32
	Document  []byte
	CreatedAt pgtype.Timestamptz
}

// --- Users ---

type CreateUserParams struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
}

const userColumns = `id, email, password, display_name, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx,
		`INSERT INTO users (id, email, password, display_name) VALUES ($1, $2, $3, $4) RETURNING `+userColumns,
		arg.ID, arg.Email, arg.Password, arg.DisplayName))
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// --- Projects ---

type CreateProjectParams struct {
	ID          string
	Name        string
	OwnerID     string
	Fps         int32
	TotalFrames int32
	Width       int32
	Height      int32
}

const projectColumns = `id, name, owner_id, fps, total_frames, width, height, created_at, updated_at`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.OwnerID, &p.Fps, &p.TotalFrames, &p.Width, &p.Height, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) (Project, error) {
	return scanProject(q.db.QueryRow(ctx,
		`INSERT INTO projects (id, name, owner_id, fps, total_frames, width, height)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+projectColumns,
		arg.ID, arg.Name, arg.OwnerID, arg.Fps, arg.TotalFrames, arg.Width, arg.Height))
}

func (q *Queries) GetProject(ctx context.Context, id string) (Project, error) {
	return scanProject(q.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
}

func (q *Queries) ListProjectsForUser(ctx context.Context, userID string) ([]Project, error) {
	rows, err := q.db.Query(ctx,
		`SELECT p.id, p.name, p.owner_id, p.fps, p.total_frames, p.width, p.height, p.created_at, p.updated_at
		 FROM projects p JOIN project_members m ON m.project_id = p.id
		 WHERE m.user_id = $1 ORDER BY p.updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (q *Queries) TouchProject(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, `UPDATE projects SET updated_at = now() WHERE id = $1`, id)
	return err
}

func (q *Queries) DeleteProject(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return err
}

// --- Members ---

type AddProjectMemberParams struct {
	ProjectID string
	UserID    string
	Role      ProjectRole
}

func (q *Queries) AddProjectMember(ctx context.Context, arg AddProjectMemberParams) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO project_members (project_id, user_id, role) VALUES ($1, $2, $3)
		 ON CONFLICT (project_id, user_id) DO UPDATE SET role = EXCLUDED.role`,
		arg.ProjectID, arg.UserID, string(arg.Role))
	return err
}

type GetProjectMemberParams struct {
	ProjectID string
	UserID    string
}

func (q *Queries) GetProjectMember(ctx context.Context, arg GetProjectMemberParams) (ProjectMember, error) {
	var m ProjectMember
	var role string
	err := q.db.QueryRow(ctx,
		`SELECT project_id, user_id, role FROM project_members WHERE project_id = $1 AND user_id = $2`,
		arg.ProjectID, arg.UserID).Scan(&m.ProjectID, &m.UserID, &role)
	m.Role = ProjectRole(role)
	return m, err
}

type ListProjectMembersRow struct {
	UserID      string
	Role        ProjectRole
	DisplayName string
	Email       string
}

func (q *Queries) ListProjectMembers(ctx context.Context, projectID string) ([]ListProjectMembersRow, error) {
	rows, err := q.db.Query(ctx,
		`SELECT m.user_id, m.role, u.display_name, u.email
		 FROM project_members m JOIN users u ON u.id = m.user_id
		 WHERE m.project_id = $1 ORDER BY u.display_name`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ListProjectMembersRow
	for rows.Next() {
		var i ListProjectMembersRow
		var role string
		if err := rows.Scan(&i.UserID, &role, &i.DisplayName, &i.Email); err != nil {
			return nil, err
		}
		i.Role = ProjectRole(role)
		items = append(items, i)
	}
	return items, rows.Err()
}

type RemoveProjectMemberParams struct {
	ProjectID string
	UserID    string
}

func (q *Queries) RemoveProjectMember(ctx context.Context, arg RemoveProjectMemberParams) error {
	_, err := q.db.Exec(ctx,
		`DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`,
		arg.ProjectID, arg.UserID)
	return err
}

// --- Snapshots ---

type CreateSnapshotParams struct {
	ID        string
	ProjectID string
	Version   int32
	Document  []byte
}

const snapshotColumns = `id, project_id, version, document, created_at`

func scanSnapshot(row pgx.Row) (Snapshot, error) {
	var s Snapshot
	err := row.Scan(&s.ID, &s.ProjectID, &s.Version, &s.Document, &s.CreatedAt)
	return s, err
}

func (q *Queries) CreateSnapshot(ctx context.Context, arg CreateSnapshotParams) (Snapshot, error) {
	return scanSnapshot(q.db.QueryRow(ctx,
		`INSERT INTO snapshots (id, project_id, version, document) VALUES ($1, $2, $3, $4) RETURNING `+snapshotColumns,
		arg.ID, arg.ProjectID, arg.Version, arg.Document))
}

func (q *Queries) GetLatestSnapshot(ctx context.Context, projectID string) (Snapshot, error) {
	return scanSnapshot(q.db.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots WHERE project_id = $1 ORDER BY version DESC LIMIT 1`,
		projectID))
}

// AppendSnapshot stores document as the project's next version.
func (q *Queries) AppendSnapshot(ctx context.Context, id, projectID string, document []byte) (Snapshot, error) {
	return scanSnapshot(q.db.QueryRow(ctx,
		`INSERT INTO snapshots (id, project_id, version, document)
		 SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3 FROM snapshots WHERE project_id = $2
		 RETURNING `+snapshotColumns,
		id, projectID, document))
}
