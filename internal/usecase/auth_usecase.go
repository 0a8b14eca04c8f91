package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"inventory/internal/domain/model"
	"inventory/internal/logger"
	repo "inventory/internal/repository"
)

const (
	usernameMinLen = 3
	usernameMaxLen = 64
	passwordMinLen = 8
	// bcryptが扱えるのは72バイトまで
	passwordMaxLen = 72
)

type RegisterInput struct {
	Username string
	Password string
	Role     string
}

type RegisterOutput struct {
	Message string     `json:"message"`
	User    model.User `json:"user"`
}

type LoginInput struct {
	Username string
	Password string
}

type LoginOutput struct {
	Message   string     `json:"message"`
	Role      model.Role `json:"role"`
	Token     string     `json:"token"`
	ExpiresIn int        `json:"expires_in"`
}

type ForceLogoutOutput struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

type AuthUsecase struct {
	users    repo.UserRepository
	audit    repo.AuditLogRepository
	hasher   PasswordHasher
	verifier PasswordVerifier
	issuer   AccessTokenIssuer
	clock    Clock
	log      *logger.Logger
}

// DI
func NewAuthUsecase(
	users repo.UserRepository,
	audit repo.AuditLogRepository,
	hasher PasswordHasher,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	clock Clock,
	log *logger.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		users:    users,
		audit:    audit,
		hasher:   hasher,
		verifier: verifier,
		issuer:   issuer,
		clock:    clock,
		log:      log,
	}
}

func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (RegisterOutput, error) {
	username := strings.TrimSpace(in.Username)
	if len(username) < usernameMinLen || len(username) > usernameMaxLen {
		return RegisterOutput{}, NewHTTPError(http.StatusBadRequest, "username must be 3-64 characters")
	}
	if len(in.Password) < passwordMinLen {
		return RegisterOutput{}, NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
	}
	if len(in.Password) > passwordMaxLen {
		return RegisterOutput{}, NewHTTPError(http.StatusBadRequest, "password must be at most 72 bytes")
	}

	role, ok := model.ParseRole(in.Role)
	if !ok {
		return RegisterOutput{}, NewHTTPError(http.StatusBadRequest, "invalid role")
	}
	// 管理者は自己登録させない（起動時の設定からだけ作る）
	if role == model.RoleAdmin {
		return RegisterOutput{}, NewHTTPError(http.StatusForbidden, "cannot self-register as admin")
	}

	user, err := u.createUser(ctx, username, in.Password, role)
	if err != nil {
		return RegisterOutput{}, err
	}

	return RegisterOutput{Message: "User registered", User: *user}, nil
}

func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return LoginOutput{}, NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	user, err := u.users.FindByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		return LoginOutput{}, errInvalidCredentials()
	}
	if err != nil {
		u.log.Error(ctx, "find user failed", err)
		return LoginOutput{}, errDB()
	}

	//パスワード照合（停止中かどうかは照合が通ってから返す）
	if !u.verifier.Verify(in.Password, user.PasswordHash) {
		return LoginOutput{}, errInvalidCredentials()
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return LoginOutput{}, NewHTTPError(http.StatusForbidden, "user is inactive")
	}

	now := u.clock.Now()
	token, exp, err := u.issuer.Issue(user.ID, user.Role, user.TokenVersion, now)
	if err != nil {
		u.log.Error(ctx, "issue token failed", err)
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "token error")
	}

	//last_login更新（失敗してもログインは通す）
	user.LastLoginAt = &now
	if err := u.users.Update(ctx, user); err != nil {
		u.log.Warn(u.log.WithField(ctx, "error", err.Error()), "update last_login_at failed")
	}

	return LoginOutput{
		Message:   "Login successful",
		Role:      user.Role,
		Token:     token,
		ExpiresIn: int(exp.Sub(now).Seconds()),
	}, nil
}

// EnsureAdmin は起動時に管理者アカウントを用意する。既にあれば何もしない。
func (u *AuthUsecase) EnsureAdmin(ctx context.Context, username string, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return NewHTTPError(http.StatusBadRequest, "admin username and password are required")
	}

	existing, err := u.users.FindByUsername(ctx, username)
	if err == nil {
		if existing.Role != model.RoleAdmin {
			u.log.Warn(u.log.WithField(ctx, "username", username), "bootstrap admin name is taken by a non-admin user")
		}
		return nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return errDB()
	}

	if _, err := u.createUser(ctx, username, password, model.RoleAdmin); err != nil {
		var he *HTTPError
		// 同時起動で先に作られた
		if errors.As(err, &he) && he.Kind == KindConflict {
			return nil
		}
		return err
	}
	u.log.Info(u.log.WithField(ctx, "username", username), "bootstrap admin created")
	return nil
}

// 強制ログアウト（token_versionを上げて発行済みJWTを無効化）
func (u *AuthUsecase) ForceLogout(ctx context.Context, actorAdminUserID int64, targetUserID int64) (ForceLogoutOutput, error) {
	if actorAdminUserID <= 0 {
		return ForceLogoutOutput{}, errUnauthorized()
	}
	if targetUserID <= 0 {
		return ForceLogoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	before, err := u.users.FindByID(ctx, targetUserID)
	if errors.Is(err, repo.ErrNotFound) {
		return ForceLogoutOutput{}, NewHTTPError(http.StatusNotFound, "User not found")
	}
	if err != nil {
		return ForceLogoutOutput{}, errDB()
	}
	beforeVersion := before.TokenVersion

	if err := u.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ForceLogoutOutput{}, NewHTTPError(http.StatusNotFound, "User not found")
		}
		return ForceLogoutOutput{}, errDB()
	}

	//更新後を取得してnew_token_versionを返す
	after, err := u.users.FindByID(ctx, targetUserID)
	if err != nil {
		return ForceLogoutOutput{}, errDB()
	}

	if err := u.audit.Create(ctx, model.AuditLog{
		ActorUserID:  actorAdminUserID,
		Action:       model.AuditActionForceLogout,
		ResourceType: model.AuditResourceUser,
		ResourceID:   targetUserID,
		BeforeJSON:   toJSON(map[string]int{"token_version": beforeVersion}),
		AfterJSON:    toJSON(map[string]int{"token_version": after.TokenVersion}),
		CreatedAt:    u.clock.Now(),
	}); err != nil {
		u.log.Error(ctx, "audit log for force logout failed", err)
		return ForceLogoutOutput{}, errDB()
	}

	return ForceLogoutOutput{
		UserID:          after.ID,
		NewTokenVersion: after.TokenVersion,
	}, nil
}

func (u *AuthUsecase) createUser(ctx context.Context, username string, password string, role model.Role) (*model.User, error) {
	//パスワードは必ずハッシュ化して保存（平文保存しない）
	hashed, err := u.hasher.Hash(password)
	if err != nil {
		u.log.Error(ctx, "hash password failed", err)
		return nil, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	now := u.clock.Now()
	user := &model.User{
		Username:     username,
		PasswordHash: hashed,
		Role:         role,
		TokenVersion: 0,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, NewHTTPError(http.StatusConflict, "username already exists")
		}
		u.log.Error(ctx, "create user failed", err)
		return nil, errDB()
	}
	return user, nil
}

func errInvalidCredentials() error {
	return NewKindError(http.StatusBadRequest, KindInvalidCredentials, "Invalid credentials")
}
