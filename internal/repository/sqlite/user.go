package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/msomdec/sysmgr/internal/domain"
)

// UserRepository implements domain.UserRepository using SQLite.
type UserRepository struct {
	db   *sql.DB
	orgs *orgRepo
}

// NewUserRepository creates a new SQLite-backed UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db.SqlDB, orgs: &orgRepo{db: db.SqlDB}}
}

const userColumns = `id, org_id, login, password, prefix, first_names, last_name, company, title, email,
	disabled, use_pam_authentication, page_size, show_system_group_list, last_logged_in,
	preferred_locale, time_zone, email_notify, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.Org == nil {
		return fmt.Errorf("%w: user has no org", domain.ErrInvalidInput)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	p, info := user.Personal, user.Info
	result, err := tx.ExecContext(ctx,
		`INSERT INTO users (org_id, login, login_uc, password, prefix, first_names, last_name, company, title, email,
			disabled, use_pam_authentication, page_size, show_system_group_list, last_logged_in,
			preferred_locale, time_zone, email_notify, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Org.ID, p.Login, strings.ToUpper(p.Login), p.Password, p.Prefix, p.FirstNames, p.LastName, p.Company, p.Title, p.Email,
		user.Disabled, info.UsePAMAuthentication, info.PageSize, info.ShowSystemGroupList, nullTime(info.LastLoggedIn),
		info.PreferredLocale, info.TimeZone, info.EmailNotify, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateLogin
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	user.ID = id

	if err := writeAssociations(ctx, tx, user); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit user: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := r.load(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("query user by id: %w", err)
	}
	return user, nil
}

// GetByLogin looks the user up case-insensitively.
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE login_uc = ?`, strings.ToUpper(login))
	user, err := r.load(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("query user by login: %w", err)
	}
	return user, nil
}

// Update stores the user's fields and replaces its group memberships,
// addresses, server associations and notification methods.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	p, info := user.Personal, user.Info
	result, err := tx.ExecContext(ctx,
		`UPDATE users SET login = ?, login_uc = ?, password = ?, prefix = ?, first_names = ?, last_name = ?,
			company = ?, title = ?, email = ?, disabled = ?, use_pam_authentication = ?, page_size = ?,
			show_system_group_list = ?, last_logged_in = ?, preferred_locale = ?, time_zone = ?,
			email_notify = ?, updated_at = ?
		 WHERE id = ?`,
		p.Login, strings.ToUpper(p.Login), p.Password, p.Prefix, p.FirstNames, p.LastName,
		p.Company, p.Title, p.Email, user.Disabled, info.UsePAMAuthentication, info.PageSize,
		info.ShowSystemGroupList, nullTime(info.LastLoggedIn), info.PreferredLocale, info.TimeZone,
		info.EmailNotify, now, user.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateLogin
		}
		return fmt.Errorf("update user: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}

	for _, table := range []string{"user_group_members", "addresses", "user_servers", "notification_methods"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_id = ?`, user.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := writeAssociations(ctx, tx, user); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit user: %w", err)
	}

	user.UpdatedAt = now
	return nil
}

// UpdateLastLogin records a login time without touching the rest of the user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, t time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET last_logged_in = ? WHERE id = ?", t.UTC(), id)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return requireRow(result)
}

// UpdateAddresses replaces the user's address records only.
func (r *UserRepository) UpdateAddresses(ctx context.Context, id int64, addrs []domain.Address) error {
	return r.replace(ctx, id, "addresses", func(tx *sql.Tx) error {
		return insertAddresses(ctx, tx, id, addrs)
	})
}

// UpdateGroups replaces the user's group memberships only.
func (r *UserRepository) UpdateGroups(ctx context.Context, id int64, groups []domain.UserGroup) error {
	return r.replace(ctx, id, "user_group_members", func(tx *sql.Tx) error {
		return insertGroups(ctx, tx, id, groups)
	})
}

// replace bumps updated_at, clears table for the user and refills it with
// insert, all in one transaction.
func (r *UserRepository) replace(ctx context.Context, id int64, table string, insert func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, "UPDATE users SET updated_at = ? WHERE id = ?", time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("touch user: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if err := insert(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	return nil
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func writeAssociations(ctx context.Context, tx *sql.Tx, user *domain.User) error {
	if err := insertGroups(ctx, tx, user.ID, user.Groups()); err != nil {
		return err
	}
	if err := insertAddresses(ctx, tx, user.ID, user.Addresses()); err != nil {
		return err
	}

	for _, s := range user.Servers() {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO user_servers (user_id, server_id) VALUES (?, ?)",
			user.ID, s.ID,
		); err != nil {
			return fmt.Errorf("insert server association: %w", err)
		}
	}

	for _, m := range user.NotificationMethods {
		var id any
		if m.ID != 0 {
			id = m.ID
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO notification_methods (id, user_id, name, type, address) VALUES (?, ?, ?, ?, ?)",
			id, user.ID, m.Name, m.Type, m.Address,
		); err != nil {
			return fmt.Errorf("insert notification method: %w", err)
		}
	}
	return nil
}

func insertGroups(ctx context.Context, tx *sql.Tx, userID int64, groups []domain.UserGroup) error {
	for _, g := range groups {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO user_group_members (user_id, user_group_id) VALUES (?, ?)",
			userID, g.ID,
		); err != nil {
			return fmt.Errorf("insert group membership: %w", err)
		}
	}
	return nil
}

func insertAddresses(ctx context.Context, tx *sql.Tx, userID int64, addrs []domain.Address) error {
	for i := range addrs {
		a := &addrs[i]
		var id any
		if a.ID != 0 {
			id = a.ID
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO addresses (id, user_id, type, address1, address2, city, state, zip, country, phone, fax, is_po_box)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, userID, string(a.Type), a.Address1, a.Address2, a.City, a.State, a.Zip, a.Country, a.Phone, a.Fax, a.IsPoBox,
		); err != nil {
			return fmt.Errorf("insert address: %w", err)
		}
	}
	return nil
}

func (r *UserRepository) load(ctx context.Context, row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	var orgID int64
	var lastLoggedIn sql.NullTime
	p, info := &user.Personal, &user.Info
	err := row.Scan(&user.ID, &orgID, &p.Login, &p.Password, &p.Prefix, &p.FirstNames, &p.LastName, &p.Company, &p.Title, &p.Email,
		&user.Disabled, &info.UsePAMAuthentication, &info.PageSize, &info.ShowSystemGroupList, &lastLoggedIn,
		&info.PreferredLocale, &info.TimeZone, &info.EmailNotify, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if lastLoggedIn.Valid {
		t := lastLoggedIn.Time
		info.LastLoggedIn = &t
	}

	if user.Org, err = r.orgs.GetByID(ctx, orgID); err != nil {
		return nil, fmt.Errorf("load org: %w", err)
	}

	groups, err := r.loadGroups(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.SetGroups(groups)

	addrs, err := r.loadAddresses(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.SetAddresses(addrs)

	servers, err := r.loadServers(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.SetServers(servers)

	if user.NotificationMethods, err = r.loadNotificationMethods(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) loadGroups(ctx context.Context, userID int64) ([]domain.UserGroup, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT g.id, g.org_id, g.name, g.role
		 FROM user_groups g JOIN user_group_members m ON m.user_group_id = g.id
		 WHERE m.user_id = ? ORDER BY g.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query group memberships: %w", err)
	}
	defer rows.Close()

	var groups []domain.UserGroup
	for rows.Next() {
		var g domain.UserGroup
		if err := rows.Scan(&g.ID, &g.OrgID, &g.Name, &g.Role); err != nil {
			return nil, fmt.Errorf("scan group membership: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *UserRepository) loadAddresses(ctx context.Context, userID int64) ([]domain.Address, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, address1, address2, city, state, zip, country, phone, fax, is_po_box
		 FROM addresses WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query addresses: %w", err)
	}
	defer rows.Close()

	var addrs []domain.Address
	for rows.Next() {
		var a domain.Address
		if err := rows.Scan(&a.ID, &a.Type, &a.Address1, &a.Address2, &a.City, &a.State, &a.Zip, &a.Country, &a.Phone, &a.Fax, &a.IsPoBox); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addrs = append(addrs, a)
	}
	return addrs, rows.Err()
}

func (r *UserRepository) loadServers(ctx context.Context, userID int64) ([]domain.Server, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.id, s.org_id, s.name, s.base_channel_label, s.created_at
		 FROM servers s JOIN user_servers us ON us.server_id = s.id
		 WHERE us.user_id = ? ORDER BY s.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query servers: %w", err)
	}
	defer rows.Close()

	var servers []domain.Server
	for rows.Next() {
		var s domain.Server
		if err := rows.Scan(&s.ID, &s.OrgID, &s.Name, &s.BaseChannelLabel, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan server: %w", err)
		}
		servers = append(servers, s)
	}
	return servers, rows.Err()
}

func (r *UserRepository) loadNotificationMethods(ctx context.Context, userID int64) ([]domain.NotificationMethod, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, address FROM notification_methods WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query notification methods: %w", err)
	}
	defer rows.Close()

	var methods []domain.NotificationMethod
	for rows.Next() {
		var m domain.NotificationMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.Type, &m.Address); err != nil {
			return nil, fmt.Errorf("scan notification method: %w", err)
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
