package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"streetCA/simulator"
)

const storeSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL,
	lanes      INTEGER NOT NULL,
	length     INTEGER NOT NULL,
	car_count  INTEGER NOT NULL,
	v_max      INTEGER NOT NULL,
	seed       INTEGER NOT NULL,
	steps      INTEGER NOT NULL,
	artifact   BLOB NOT NULL
);
`

// Store 基于SQLite的运行归档，按生成的运行ID保存、列出和恢复模拟
type Store struct {
	db *sql.DB
}

// RunInfo 归档中一次运行的元数据
type RunInfo struct {
	ID        string
	CreatedAt time.Time
	Lanes     int
	Length    int
	CarCount  int
	VMax      int
	Seed      uint64
	Steps     int
}

// OpenStore 打开（不存在则创建）指定路径的归档数据库
// WAL模式允许写入期间并发读取；SQLite同一时刻只支持一个写入者，
// 连接池限制为单连接以避免SQLITE_BUSY
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect store %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply store schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close 关闭归档数据库
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun 序列化运行器并以新生成的ID存入归档，返回该ID
func (s *Store) SaveRun(ctx context.Context, r *simulator.Runner) (string, error) {
	data, err := Serialize(r)
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}

	id := uuid.NewString()
	cfg := r.Street().Config()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, lanes, length, car_count, v_max, seed, steps, artifact)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		time.Now().UTC(),
		cfg.Lanes,
		cfg.Length,
		cfg.CarCount,
		cfg.VMax,
		int64(cfg.Seed),
		len(r.History()),
		data,
	)
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	return id, nil
}

// LoadRun 按ID从归档恢复运行器
// 解码失败时原样透出产物错误类型，便于调用方用errors.Is判断
func (s *Store) LoadRun(ctx context.Context, id string) (*simulator.Runner, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT artifact FROM runs WHERE id = ?`, id).Scan(&data)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	return Deserialize(data)
}

// ListRuns 按创建时间升序返回归档中所有运行的元数据
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, lanes, length, car_count, v_max, seed, steps
		FROM runs ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var infos []RunInfo
	for rows.Next() {
		var info RunInfo
		var seed int64
		if err := rows.Scan(&info.ID, &info.CreatedAt, &info.Lanes, &info.Length,
			&info.CarCount, &info.VMax, &seed, &info.Steps); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		info.Seed = uint64(seed)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return infos, nil
}

// DeleteRun 按ID删除一次归档运行
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	return nil
}
