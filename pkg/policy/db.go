package policy

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/varlog/logsift/internal/errx"
	"github.com/varlog/logsift/pkg/api"
	"github.com/varlog/logsift/pkg/storedb"
)

// Open loads the persisted policy from the sqlite database at path,
// seeding it with defaults on first use. The store survives restarts;
// every successful Update is written through before the swap.
func Open(path string, defaults api.PolicyConfig) (*Store, error) {
	db, err := storedb.Open(storedb.OpenOptions{
		Path:       path,
		Migrations: migrations(),
	})
	if err != nil {
		return nil, err
	}

	cfg, err := load(db)
	if errors.Is(err, sql.ErrNoRows) {
		cfg = defaults
		if err := save(db, cfg); err != nil {
			_ = db.Close()
			return nil, err
		}
	} else if err != nil {
		_ = db.Close()
		return nil, err
	}

	snap, err := compile(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	s.current.Store(snap)
	return s, nil
}

func migrations() []storedb.Migration {
	return []storedb.Migration{
		{
			Version: 1,
			Name:    "create_policy",
			SQL: `
CREATE TABLE IF NOT EXISTS policy (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  whitelist_json TEXT NOT NULL,
  blacklist_json TEXT NOT NULL,
  default_verdict TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`,
		},
	}
}

func load(db *sql.DB) (api.PolicyConfig, error) {
	var (
		cfg           api.PolicyConfig
		whitelistJSON string
		blacklistJSON string
		verdict       string
	)
	err := db.QueryRow(
		`SELECT whitelist_json, blacklist_json, default_verdict FROM policy WHERE id = 1`,
	).Scan(&whitelistJSON, &blacklistJSON, &verdict)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cfg, err
		}
		return cfg, errx.Wrap(ErrLoadPolicy, err)
	}

	if err := json.Unmarshal([]byte(whitelistJSON), &cfg.Whitelist); err != nil {
		return cfg, errx.Wrap(ErrLoadPolicy, err)
	}
	if err := json.Unmarshal([]byte(blacklistJSON), &cfg.Blacklist); err != nil {
		return cfg, errx.Wrap(ErrLoadPolicy, err)
	}
	cfg.DefaultVerdict = api.Decision(verdict)
	return cfg, nil
}

func save(db *sql.DB, cfg api.PolicyConfig) error {
	whitelistJSON, err := json.Marshal(cfg.Whitelist)
	if err != nil {
		return errx.Wrap(ErrSavePolicy, err)
	}
	blacklistJSON, err := json.Marshal(cfg.Blacklist)
	if err != nil {
		return errx.Wrap(ErrSavePolicy, err)
	}

	_, err = db.Exec(`
INSERT INTO policy (id, whitelist_json, blacklist_json, default_verdict, updated_at)
VALUES (1, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  whitelist_json = excluded.whitelist_json,
  blacklist_json = excluded.blacklist_json,
  default_verdict = excluded.default_verdict,
  updated_at = excluded.updated_at`,
		string(whitelistJSON),
		string(blacklistJSON),
		string(cfg.DefaultVerdict),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return errx.Wrap(ErrSavePolicy, err)
	}
	return nil
}
