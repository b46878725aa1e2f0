package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// StoreAsset saves a static asset under assetPath. Text mime-types must be
// valid utf-8 since they are served with an explicit charset.
func (l *L) StoreAsset(ctx context.Context, assetPath string, mimetype string, content string) (int64, error) {
	if !l.writeable {
		return 0, ErrReadOnly
	}
	assetPath, pathHash := normalizeAssetPath(assetPath)
	switch mimetype {
	case "text/html", "text/css", "text/plain", "application/json":
		if !utf8.ValidString(content) {
			return 0, fmt.Errorf("asset %v with mimetype %v must be utf-8 encoded", assetPath, mimetype)
		}
	}
	res, err := l.db.ExecContext(ctx,
		`insert into assets(path, path_hash64, mime_type, content) values (?, ?, ?, ?)
		on conflict (path) do update set mime_type = excluded.mime_type, content = excluded.content`,
		assetPath, pathHash, mimetype, content)
	if err != nil {
		return 0, fmt.Errorf("unable to store asset %v, cause %w", assetPath, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("unable to read asset id for %v, cause %w", assetPath, err)
	}
	return id, nil
}

// CopyAsset writes the asset content to out and returns its mime type.
func (l *L) CopyAsset(ctx context.Context, out io.Writer, assetPath string) (string, error) {
	assetPath, pathHash := normalizeAssetPath(assetPath)
	var content string
	var mt string
	err := l.db.QueryRowContext(ctx,
		`select mime_type, content from assets where path_hash64 = ? and path = ?`,
		pathHash, assetPath).Scan(&mt, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", AssetNotFound{Path: assetPath}
	} else if err != nil {
		return "", fmt.Errorf("unable to load %v from ledger, cause %w", assetPath, err)
	}
	_, err = io.WriteString(out, content)
	if err != nil {
		return "", fmt.Errorf("unable to copy %v to destination, cause %w", assetPath, err)
	}
	return mt, nil
}

// ListAssets returns the path of every stored asset.
func (l *L) ListAssets(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `select path from assets order by path asc`)
	if err != nil {
		return nil, fmt.Errorf("unable to list assets, cause %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		err = rows.Scan(&name)
		if err != nil {
			return nil, fmt.Errorf("unable to scan asset name, cause %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func normalizeAssetPath(assetPath string) (string, int64) {
	assetPath = path.Clean(assetPath)
	return assetPath, int64(xxhash.Sum64String(assetPath))
}
