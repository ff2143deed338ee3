package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	opPut = "put"
	opGet = "get"
)

var (
	ErrInvalidToken = errors.New("invalid blob token")
	ErrTokenUsed    = errors.New("upload token already used")
	ErrTooLarge     = errors.New("upload exceeds declared size")
)

// LocalGateway stores objects on the local filesystem and signs access with
// HMAC JWTs. Upload tokens are single use, tracked in an in-memory cache, so
// a leaked PUT URL cannot be replayed.
type LocalGateway struct {
	root        string
	baseURL     string
	secret      []byte
	uploadTTL   time.Duration
	downloadTTL time.Duration
	issued      *cache.Cache
}

func NewLocalGateway(root, baseURL string, secret []byte, uploadTTL, downloadTTL time.Duration) (*LocalGateway, error) {
	if uploadTTL <= 0 {
		uploadTTL = 15 * time.Minute
	}
	if downloadTTL <= 0 {
		downloadTTL = 5 * time.Minute
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &LocalGateway{
		root:        root,
		baseURL:     strings.TrimRight(baseURL, "/"),
		secret:      secret,
		uploadTTL:   uploadTTL,
		downloadTTL: downloadTTL,
		issued:      cache.New(uploadTTL, 10*time.Minute),
	}, nil
}

func (g *LocalGateway) path(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return filepath.Join(g.root, filepath.FromSlash(key)), nil
}

func (g *LocalGateway) sign(key, op, jti string, maxBytes int64, ttl time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(ttl)
	claims := jwt.MapClaims{
		"key": key,
		"op":  op,
		"jti": jti,
		"exp": expiresAt.Unix(),
	}
	if maxBytes > 0 {
		claims["max"] = maxBytes
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (g *LocalGateway) IssueUploadURL(ctx context.Context, key string, maxBytes int64) (*SignedURL, error) {
	if _, err := g.path(key); err != nil {
		return nil, err
	}
	jti := uuid.NewString()
	token, expiresAt, err := g.sign(key, opPut, jti, maxBytes, g.uploadTTL)
	if err != nil {
		return nil, err
	}
	g.issued.Set(jti, key, g.uploadTTL)

	return &SignedURL{
		URL:       fmt.Sprintf("%s/blob/v1/%s?token=%s", g.baseURL, key, url.QueryEscape(token)),
		ExpiresAt: expiresAt,
	}, nil
}

func (g *LocalGateway) IssueDownloadURL(ctx context.Context, key string) (*SignedURL, error) {
	exists, err := g.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	token, expiresAt, err := g.sign(key, opGet, uuid.NewString(), 0, g.downloadTTL)
	if err != nil {
		return nil, err
	}
	return &SignedURL{
		URL:       fmt.Sprintf("%s/blob/v1/%s?token=%s", g.baseURL, key, url.QueryEscape(token)),
		ExpiresAt: expiresAt,
	}, nil
}

func (g *LocalGateway) Exists(ctx context.Context, key string) (bool, error) {
	p, err := g.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (g *LocalGateway) Stat(ctx context.Context, key string) (int64, error) {
	p, err := g.path(key)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return info.Size(), nil
}

func (g *LocalGateway) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := g.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (g *LocalGateway) Remove(ctx context.Context, key string) error {
	p, err := g.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Put writes uploaded bytes under the key, enforcing the size cap from the
// upload token. Used by the gateway's own HTTP handler.
func (g *LocalGateway) Put(ctx context.Context, key string, r io.Reader, maxBytes int64) (int64, error) {
	p, err := g.path(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return 0, err
	}

	f, err := os.Create(p)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	written, err := io.Copy(f, r)
	if err != nil {
		os.Remove(p)
		return 0, err
	}
	if maxBytes > 0 && written > maxBytes {
		os.Remove(p)
		return 0, ErrTooLarge
	}
	return written, nil
}

type tokenClaims struct {
	Key      string
	MaxBytes int64
}

func (g *LocalGateway) parseToken(tokenStr, wantOp, wantKey string) (*tokenClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	key, _ := claims["key"].(string)
	op, _ := claims["op"].(string)
	if op != wantOp || key == "" || key != wantKey {
		return nil, ErrInvalidToken
	}

	parsed := &tokenClaims{Key: key}
	if max, ok := claims["max"].(float64); ok {
		parsed.MaxBytes = int64(max)
	}
	if op == opPut {
		jti, _ := claims["jti"].(string)
		if _, found := g.issued.Get(jti); !found {
			return nil, ErrTokenUsed
		}
		g.issued.Delete(jti)
	}
	return parsed, nil
}

// AuthorizeUpload validates and consumes a single-use upload token, returning
// the byte cap the caller must enforce.
func (g *LocalGateway) AuthorizeUpload(tokenStr, key string) (int64, error) {
	claims, err := g.parseToken(tokenStr, opPut, key)
	if err != nil {
		return 0, err
	}
	return claims.MaxBytes, nil
}

// AuthorizeDownload validates a download token for the key.
func (g *LocalGateway) AuthorizeDownload(tokenStr, key string) error {
	_, err := g.parseToken(tokenStr, opGet, key)
	return err
}
