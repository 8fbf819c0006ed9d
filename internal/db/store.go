package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/luminode/caster/internal/model"
	"github.com/luminode/caster/internal/schedule"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// AssignmentParams carries the full field set for creating a scheduled
// assignment. Validation happens inside the store so every caller gets the
// same ValidationError contract.
type AssignmentParams struct {
	DeviceID   int
	PlaylistID int
	Name       string
	Priority   int
	Enabled    bool
	Rule       model.TimeRule
}

// AssignmentUpdate holds optional replacements; nil fields keep the stored
// value. A non-nil Rule replaces the whole rule.
type AssignmentUpdate struct {
	PlaylistID *int
	Name       *string
	Priority   *int
	Enabled    *bool
	Rule       model.TimeRule
}

// ActionParams mirrors AssignmentParams for scheduled hardware actions.
type ActionParams struct {
	DeviceID             int
	Name                 string
	Action               model.ActionType
	Input                *string
	Priority             int
	Enabled              bool
	CatchUpWindowMinutes int
	Rule                 model.TimeRule
}

// ActionUpdate holds optional replacements for a scheduled action.
type ActionUpdate struct {
	Name                 *string
	Action               *model.ActionType
	Input                *string
	Priority             *int
	Enabled              *bool
	CatchUpWindowMinutes *int
	Rule                 model.TimeRule
}

// Store exposes persistence to API handlers and to the scheduling engine.
type Store interface {
	// user functions
	CreateUser(ctx context.Context, email, hashedPassword string, name *string) (int, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int) (*model.User, error)

	// device functions
	CreateDevice(ctx context.Context, name string, location *string, createdBy int) (model.Device, error)
	GetDevice(ctx context.Context, id int) (model.Device, error)
	GetDeviceByHardwareID(ctx context.Context, hardwareID string) (model.Device, error)
	ListDevices(ctx context.Context) ([]model.Device, error)
	UpdateDevice(ctx context.Context, id int, name, location *string) error
	PairDevice(ctx context.Context, id int, hardwareID string) error
	SetDeviceCurrentPlaylist(ctx context.Context, id int, playlistID *int) error
	DeleteDevice(ctx context.Context, id int) error

	// playlist functions
	CreatePlaylist(ctx context.Context, name string, description *string, createdBy int) (model.Playlist, error)
	GetPlaylist(ctx context.Context, id int) (model.Playlist, error)
	ListPlaylists(ctx context.Context) ([]model.Playlist, error)
	UpdatePlaylist(ctx context.Context, id int, name, description *string) error
	DeletePlaylist(ctx context.Context, id int) error

	// scheduled assignment functions
	CreateAssignment(ctx context.Context, params AssignmentParams) (model.ScheduledAssignment, error)
	GetAssignment(ctx context.Context, id int) (model.ScheduledAssignment, error)
	ListAssignments(ctx context.Context, deviceID *int) ([]model.ScheduledAssignment, error)
	ListDeviceAssignments(ctx context.Context, deviceID int) ([]model.ScheduledAssignment, error)
	UpdateAssignment(ctx context.Context, id int, update AssignmentUpdate) (model.ScheduledAssignment, error)
	DeleteAssignment(ctx context.Context, id int) error

	// scheduled action functions
	CreateAction(ctx context.Context, params ActionParams) (model.ScheduledAction, error)
	GetAction(ctx context.Context, id int) (model.ScheduledAction, error)
	ListActions(ctx context.Context, deviceID *int) ([]model.ScheduledAction, error)
	ListEnabledActions(ctx context.Context) ([]schedule.ActionWithDevice, error)
	UpdateAction(ctx context.Context, id int, update ActionUpdate) (model.ScheduledAction, error)
	DeleteAction(ctx context.Context, id int) error
	ClaimAction(ctx context.Context, id int, fn func(model.ScheduledAction) (time.Time, error)) error

	// tick transaction boundary
	InTick(ctx context.Context, fn func(schedule.TickStore) error) error
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time checks that pgStore satisfies both the admin-facing Store and
// the engine's persistence contract
var (
	_ Store          = (*pgStore)(nil)
	_ schedule.Store = (*pgStore)(nil)
)

func NewStore(conn *sqlx.DB) Store {
	return &pgStore{db: conn}
}

// notFound maps driver-level no-rows to the package sentinel.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
