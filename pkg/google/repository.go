package google

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var (
	ErrStateNotFound      = errors.New("oauth state not found")
	ErrCredentialNotFound = errors.New("google credential not found")
	ErrSessionNotFound    = errors.New("session not found")
)

type Session struct {
	Id        string
	UserId    int
	ExpiresAt time.Time
}

type Repository interface {
	SaveState(ctx context.Context, nonce string, finalUrl string) error
	// ConsumeState removes the nonce and returns the URL stored with it.
	ConsumeState(ctx context.Context, nonce string) (string, error)

	GetCredential(ctx context.Context, userId int) (Credential, error)
	SaveCredential(ctx context.Context, userId int, credential Credential) error

	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	DeleteSession(ctx context.Context, id string) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) SaveState(ctx context.Context, nonce string, finalUrl string) error {
	_, err := r.db.Exec(ctx, "INSERT INTO oauth_state (nonce, final_url) VALUES ($1, $2)", nonce, finalUrl)
	if err != nil {
		log.Errorf("failed to store oauth state: %v", err)
	}
	return err
}

func (r *RepositoryImpl) ConsumeState(ctx context.Context, nonce string) (string, error) {
	var finalUrl string
	err := r.db.QueryRow(ctx, "DELETE FROM oauth_state WHERE nonce = $1 RETURNING final_url", nonce).Scan(&finalUrl)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrStateNotFound
	}
	return finalUrl, err
}

func (r *RepositoryImpl) GetCredential(ctx context.Context, userId int) (Credential, error) {
	var credential Credential
	var expiry int64
	err := r.db.QueryRow(ctx,
		"SELECT access_token, refresh_token, expiry, error_reason FROM google_auth WHERE user_id = $1", userId).
		Scan(&credential.AccessToken, &credential.RefreshToken, &expiry, &credential.ErrorReason)
	if errors.Is(err, pgx.ErrNoRows) {
		return Credential{}, ErrCredentialNotFound
	}
	if err != nil {
		log.Errorf("failed to read google credential of user %d: %v", userId, err)
		return Credential{}, err
	}
	credential.Expiry = time.Unix(expiry, 0)
	return credential, nil
}

func (r *RepositoryImpl) SaveCredential(ctx context.Context, userId int, credential Credential) error {
	query := `INSERT INTO google_auth (user_id, access_token, refresh_token, expiry, error_reason)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (user_id) DO UPDATE SET access_token = EXCLUDED.access_token,
					refresh_token = EXCLUDED.refresh_token, expiry = EXCLUDED.expiry, error_reason = EXCLUDED.error_reason`
	_, err := r.db.Exec(ctx, query, userId, credential.AccessToken, credential.RefreshToken,
		credential.Expiry.Unix(), credential.ErrorReason)
	if err != nil {
		log.Errorf("failed to store google credential of user %d: %v", userId, err)
	}
	return err
}

func (r *RepositoryImpl) CreateSession(ctx context.Context, session Session) error {
	_, err := r.db.Exec(ctx, "INSERT INTO user_session (id, user_id, expires_at) VALUES ($1, $2, $3)",
		session.Id, session.UserId, session.ExpiresAt)
	return err
}

func (r *RepositoryImpl) GetSession(ctx context.Context, id string) (Session, error) {
	session := Session{Id: id}
	err := r.db.QueryRow(ctx, "SELECT user_id, expires_at FROM user_session WHERE id = $1", id).
		Scan(&session.UserId, &session.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	return session, err
}

func (r *RepositoryImpl) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, "DELETE FROM user_session WHERE id = $1", id)
	return err
}
