package rtdb

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"firebase.google.com/go/v4/errorutils"
	"google.golang.org/api/option"
)

// FirebaseConfig Firebase Admin SDK 连接参数
type FirebaseConfig struct {
	ProjectID       string
	DatabaseURL     string
	CredentialsPath string
}

// FirebaseBackend Firebase Realtime Database（Admin SDK）
type FirebaseBackend struct {
	client *db.Client
}

// NewFirebaseBackend 初始化 Firebase App 并获取 Database 客户端
func NewFirebaseBackend(ctx context.Context, cfg FirebaseConfig) (*FirebaseBackend, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("firebase: 缺少 DatabaseURL")
	}

	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:   cfg.ProjectID,
		DatabaseURL: cfg.DatabaseURL,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: 初始化 App 失败: %w", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: 获取 Database 客户端失败: %w", err)
	}
	return &FirebaseBackend{client: client}, nil
}

func (b *FirebaseBackend) Get(ctx context.Context, path string) (any, error) {
	var v any
	if err := b.client.NewRef(path).Get(ctx, &v); err != nil {
		return nil, classifyFirebase("get", path, err)
	}
	return v, nil
}

func (b *FirebaseBackend) Set(ctx context.Context, path string, value any) error {
	ref := b.client.NewRef(path)
	var err error
	if value == nil {
		err = ref.Delete(ctx)
	} else {
		err = ref.Set(ctx, value)
	}
	return classifyFirebase("set", path, err)
}

func (b *FirebaseBackend) Push(ctx context.Context, path string, value any) (string, error) {
	ref, err := b.client.NewRef(path).Push(ctx, value)
	if err != nil {
		return "", classifyFirebase("push", path, err)
	}
	return ref.Key, nil
}

func (b *FirebaseBackend) Update(ctx context.Context, path string, fields map[string]any) error {
	return classifyFirebase("update", path, b.client.NewRef(path).Update(ctx, fields))
}

func (b *FirebaseBackend) Delete(ctx context.Context, path string) error {
	return classifyFirebase("delete", path, b.client.NewRef(path).Delete(ctx))
}

// MultiUpdate 根节点上的多路径 update，服务端保证原子性
func (b *FirebaseBackend) MultiUpdate(ctx context.Context, updates map[string]any) error {
	return classifyFirebase("batch", "/", b.client.NewRef("/").Update(ctx, updates))
}

func (b *FirebaseBackend) Close() error {
	return nil
}

func classifyFirebase(op, path string, err error) error {
	if err == nil {
		return nil
	}
	code := CodeUnknown
	switch {
	case errorutils.IsPermissionDenied(err), errorutils.IsUnauthenticated(err):
		code = CodePermissionDenied
	case errorutils.IsUnavailable(err), errorutils.IsDeadlineExceeded(err):
		code = CodeUnavailable
	case errorutils.IsInvalidArgument(err):
		code = CodeInvalidData
	}
	return &Error{Op: op, Path: path, Code: code, Err: err}
}
