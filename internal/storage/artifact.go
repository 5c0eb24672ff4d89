package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrArtifactNotFound 文档不存在
var ErrArtifactNotFound = errors.New("文档不存在")

// ArtifactStore 保存生成的简历文档
type ArtifactStore interface {
	// Save 返回文档的访问位置：本地路径或 bucket/key
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Load(ctx context.Context, key string) ([]byte, error)
}

// ArtifactKey 生成文档的存储键，例如 runs/<run_id>/resume.pdf
func ArtifactKey(runID, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return path.Join("runs", runID, "resume."+ext)
}

func checkKey(key string) error {
	if key == "" {
		return fmt.Errorf("存储键不能为空")
	}
	clean := path.Clean("/" + key)
	if clean != "/"+key || strings.Contains(key, "\\") {
		return fmt.Errorf("非法的存储键: %q", key)
	}
	return nil
}

// LocalStore 写入本地目录
type LocalStore struct {
	root string
}

var _ ArtifactStore = (*LocalStore)(nil)

// NewLocalStore 创建本地存储，目录不存在时自动创建
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("本地存储目录不能为空")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("创建目录 %s 失败: %w", root, err)
	}
	return &LocalStore{root: root}, nil
}

// Root 存储根目录
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := checkKey(key); err != nil {
		return "", err
	}
	full := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("创建目录失败: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("写入文档 %s 失败: %w", full, err)
	}
	return full, nil
}

func (s *LocalStore) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("读取文档 %s 失败: %w", key, err)
	}
	return data, nil
}
