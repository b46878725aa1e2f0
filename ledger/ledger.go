package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

type (
	// L is the handle to one pressbox ledger, the sqlite database that
	// holds identities, posts and static assets. Open one at process
	// start, inject it where needed, close it at shutdown.
	L struct {
		db        *sql.DB
		writeable bool
	}

	// LoginRow carries the subset of an identity needed to verify a
	// password and hand back the bearer token.
	LoginRow struct {
		Salt         string
		Token        string
		PasswordHash string
	}

	// Registration is a scoped transaction over one identity row. It is
	// acquired with BeginRegistration and must be finished with Commit or
	// Rollback on every path; Rollback after Commit is a no-op, so a
	// deferred Rollback is always safe.
	Registration struct {
		tx         *sql.Tx
		id         int64
		registered bool
		done       bool
	}
)

func openLedgerDatabase(ctx context.Context, dir string, readwrite bool) (*sql.DB, error) {
	file := filepath.Join(dir, "ledger.db")
	if readwrite {
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			return nil, fmt.Errorf("unable to create directory %v to store ledger, cause %w", dir, err)
		}
	}
	var connstr string
	if readwrite {
		// _txlock=immediate makes write transactions take the database
		// lock at Begin rather than at the first write, which keeps
		// concurrent registrations serialized instead of failing with
		// a busy error halfway through.
		connstr = fmt.Sprintf("file:%v?_writable_schema=false&_journal=wal&_busy_timeout=5000&_txlock=immediate&mode=rwc", file)
	} else {
		connstr = fmt.Sprintf("file:%v?_writable_schema=false&_busy_timeout=5000&mode=ro", file)
	}
	conn, err := sql.Open("sqlite3", connstr)
	if err != nil {
		return nil, fmt.Errorf("unable to open %v, cause %v", file, err)
	}
	err = conn.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to ping ledger %v, cause %v", file, err)
	}
	return conn, nil
}

// Open loads the ledger stored at dir, creating it (and its schema) when
// readwrite is set and the directory does not yet exist.
func Open(ctx context.Context, dir string, readwrite bool) (*L, error) {
	conn, err := openLedgerDatabase(ctx, dir, readwrite)
	if err != nil {
		return nil, err
	}
	l := &L{db: conn, writeable: readwrite}
	if readwrite {
		err = l.init(ctx)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("unable to init ledger %v, cause %v", dir, err)
		}
	}
	return l, nil
}

// Provision inserts a token-less identity row for username, which marks the
// username as allowed to register. Provisioning the same username twice
// fails with ErrDuplicateIdentity.
func (l *L) Provision(ctx context.Context, username string) (int64, error) {
	if !l.writeable {
		return 0, ErrReadOnly
	}
	if username == "" {
		return 0, ErrEmptyUsername
	}
	res, err := l.db.ExecContext(ctx, `insert into identities(username) values (?)`, username)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateIdentity
		}
		return 0, fmt.Errorf("unable to provision identity %v, cause %w", username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("unable to read identity id for %v, cause %w", username, err)
	}
	return id, nil
}

// ListIdentities returns every provisioned username alongside its
// registration state.
func (l *L) ListIdentities(ctx context.Context) (map[string]bool, error) {
	rows, err := l.db.QueryContext(ctx, `select username, token is not null from identities order by username asc`)
	if err != nil {
		return nil, fmt.Errorf("unable to list identities, cause %w", err)
	}
	defer rows.Close()
	out := map[string]bool{}
	for rows.Next() {
		var name string
		var registered bool
		err = rows.Scan(&name, &registered)
		if err != nil {
			return nil, fmt.Errorf("unable to scan identity row, cause %w", err)
		}
		out[name] = registered
	}
	return out, rows.Err()
}

// LookupAuth reports whether an identity exists whose username and token
// both match exactly. A missing row is a plain false, an error means the
// store itself failed and the caller should not treat the credential as
// either valid or invalid.
func (l *L) LookupAuth(ctx context.Context, username, token string) (bool, error) {
	var one int
	err := l.db.QueryRowContext(ctx, `select 1 from identities where username = ? and token = ?`, username, token).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("unable to check credentials for %v, cause %w", username, err)
	}
	return true, nil
}

// FindForLogin loads the stored salt, password hash and token for username.
// Identities that never completed registration are reported as not found,
// a caller cannot tell them apart from unknown usernames.
func (l *L) FindForLogin(ctx context.Context, username string) (LoginRow, error) {
	var row LoginRow
	err := l.db.QueryRowContext(ctx,
		`select salt, token, password from identities
		where username = ? and token is not null`, username).
		Scan(&row.Salt, &row.Token, &row.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return LoginRow{}, ErrIdentityNotFound
	} else if err != nil {
		return LoginRow{}, fmt.Errorf("unable to load identity %v, cause %w", username, err)
	}
	return row, nil
}

// BeginRegistration opens a write transaction and loads the identity row
// for username inside it. Until Commit or Rollback no other registration
// for any identity can interleave, which is what guarantees at most one
// activation per row.
func (l *L) BeginRegistration(ctx context.Context, username string) (*Registration, error) {
	if !l.writeable {
		return nil, ErrReadOnly
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to begin registration, cause %w", err)
	}
	var id int64
	var token sql.NullString
	err = tx.QueryRowContext(ctx, `select identity_id, token from identities where username = ?`, username).Scan(&id, &token)
	if errors.Is(err, sql.ErrNoRows) {
		tx.Rollback()
		return nil, ErrIdentityNotFound
	} else if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("unable to load identity %v for registration, cause %w", username, err)
	}
	return &Registration{tx: tx, id: id, registered: token.Valid}, nil
}

// Registered reports whether the row already carries a token.
func (r *Registration) Registered() bool { return r.registered }

// Activate writes salt, token and password hash as a single unit. The
// update is conditional on the row still being token-less, so even a
// misbehaving caller cannot overwrite an existing token.
func (r *Registration) Activate(ctx context.Context, salt, token, passwordHash string) error {
	res, err := r.tx.ExecContext(ctx,
		`update identities set salt = ?, token = ?, password = ?
		where identity_id = ? and token is null`,
		salt, token, passwordHash, r.id)
	if err != nil {
		return fmt.Errorf("unable to activate identity, cause %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to activate identity, cause %w", err)
	}
	if n == 0 {
		return ErrAlreadyActivated
	}
	return nil
}

// Commit finishes the registration transaction.
func (r *Registration) Commit() error {
	r.done = true
	err := r.tx.Commit()
	if err != nil {
		return fmt.Errorf("unable to commit registration, cause %w", err)
	}
	return nil
}

// Rollback aborts the registration unless Commit already ran.
func (r *Registration) Rollback() error {
	if r.done {
		return nil
	}
	r.done = true
	return r.tx.Rollback()
}

func (l *L) init(ctx context.Context) error {
	for _, cmd := range []string{
		`create table if not exists identities(
			identity_id integer primary key autoincrement,
			username text not null unique,
			salt text,
			password text,
			token text
		)`,
		`create table if not exists posts(
			post_id integer primary key autoincrement,
			title text not null,
			body text not null,
			created_at text not null,
			updated_at text not null
		)`,
		`create table if not exists assets(
			asset_id integer primary key autoincrement,
			path text not null unique,
			path_hash64 integer not null,
			mime_type text not null,
			content blob not null
		)`,
		`create index if not exists idx_assets_path_hash64
			on assets(path_hash64)
		`,
	} {
		_, err := l.db.ExecContext(ctx, cmd)
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *L) Close() error {
	return l.db.Close()
}
