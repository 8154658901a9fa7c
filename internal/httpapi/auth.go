package httpapi

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tokosepatu/backend/internal/domain"
	"tokosepatu/backend/internal/store"
)

const tokenIssuer = "tokosepatu"

var errInvalidCredentials = errors.New("invalid credentials")

type AuthManager struct {
	mu        sync.RWMutex
	secret    []byte
	tokenTTL  time.Duration
	userStore UserStore
	logger    *zap.Logger
	users     map[string]credential
}

type UserStore interface {
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

type credential struct {
	password string
	role     string
	active   bool
	created  time.Time
}

type posClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

func NewAuthManager(ctx context.Context, secret string, tokenTTL time.Duration, userStore UserStore, logger *zap.Logger) *AuthManager {
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	manager := &AuthManager{
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		userStore: userStore,
		logger:    logger,
		users:     make(map[string]credential),
	}
	manager.bootstrapUsers(ctx)
	return manager
}

func (a *AuthManager) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	// picks up accounts created by other instances
	a.bootstrapUsers(ctx)

	username := strings.ToLower(strings.TrimSpace(req.Username))
	a.mu.RLock()
	cred, ok := a.users[username]
	a.mu.RUnlock()
	if !ok || !verifyPassword(cred.password, req.Password) {
		return domain.LoginResponse{}, errInvalidCredentials
	}
	if !cred.active {
		return domain.LoginResponse{}, errors.New("account is inactive")
	}

	expiresAt := time.Now().UTC().Add(a.tokenTTL)
	token, err := a.sign(username, cred.role, expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		AccessToken: token,
		Role:        cred.role,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &posClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}), jwtlib.WithIssuer(tokenIssuer))
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	return domain.Actor{Username: sub, Role: claims.Role}, nil
}

func (a *AuthManager) sign(username, role string, expiresAt time.Time) (string, error) {
	claims := posClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    tokenIssuer,
		},
		Role: role,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Register creates a user account. The role defaults to cashier.
func (a *AuthManager) Register(ctx context.Context, req domain.RegisterRequest) (domain.UserView, error) {
	a.bootstrapUsers(ctx)

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if len(username) < 4 {
		return domain.UserView{}, domain.InvalidRequest("username must be at least 4 characters")
	}
	if strings.ContainsAny(username, " \t\r\n") {
		return domain.UserView{}, domain.InvalidRequest("username must not contain spaces")
	}
	if len(strings.TrimSpace(req.Password)) < 6 {
		return domain.UserView{}, domain.InvalidRequest("password must be at least 6 characters")
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = roleCashier
	}
	if role != roleCashier && role != roleAdmin {
		return domain.UserView{}, domain.InvalidRequest("role must be admin or cashier")
	}

	a.mu.RLock()
	_, exists := a.users[username]
	a.mu.RUnlock()
	if exists {
		return domain.UserView{}, domain.Conflict(domain.EntityUser, "username already exists")
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		return domain.UserView{}, err
	}
	now := time.Now().UTC()
	if a.userStore != nil {
		err := a.userStore.CreateUser(ctx, domain.UserAccount{
			Username:  username,
			Password:  passwordHash,
			Role:      role,
			Active:    true,
			CreatedAt: now,
		})
		if errors.Is(err, store.ErrConflict) {
			return domain.UserView{}, domain.Conflict(domain.EntityUser, "username already exists")
		}
		if err != nil {
			return domain.UserView{}, err
		}
	}

	a.mu.Lock()
	a.users[username] = credential{password: passwordHash, role: role, active: true, created: now}
	a.mu.Unlock()

	return domain.UserView{Username: username, Role: role, Active: true, CreatedAt: now}, nil
}

func (a *AuthManager) ListUsers(ctx context.Context) []domain.UserView {
	a.bootstrapUsers(ctx)

	a.mu.RLock()
	result := make([]domain.UserView, 0, len(a.users))
	for username, user := range a.users {
		result = append(result, domain.UserView{
			Username:  username,
			Role:      user.role,
			Active:    user.active,
			CreatedAt: user.created,
		})
	}
	a.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool {
		return result[i].Username < result[j].Username
	})
	return result
}

// bootstrapUsers loads accounts from the user store into the credential cache
// and upgrades plain-text stored passwords to bcrypt hashes.
func (a *AuthManager) bootstrapUsers(ctx context.Context) {
	if a.userStore == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	users, err := a.userStore.ListUsers(ctx)
	if err != nil {
		a.logger.Warn("load user accounts failed", zap.Error(err))
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, user := range users {
		username := strings.ToLower(strings.TrimSpace(user.Username))
		if username == "" {
			continue
		}
		password := user.Password
		if !isPasswordHash(password) {
			hashed, err := hashPassword(password)
			if err == nil {
				password = hashed
				if err := a.userStore.UpdateUserPassword(ctx, username, hashed); err != nil {
					a.logger.Warn("upgrade legacy password failed", zap.String("username", username), zap.Error(err))
				}
			}
		}
		a.users[username] = credential{
			password: password,
			role:     user.Role,
			active:   user.Active,
			created:  user.CreatedAt,
		}
	}
}

func verifyPassword(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" || !isPasswordHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		a.writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(r.Context(), req)
	if err != nil {
		a.logger.Info("login rejected", zap.String("username", req.Username), zap.String("client", clientKey(r)))
		a.writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	user, err := a.auth.Register(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"users": a.auth.ListUsers(r.Context())})
}
