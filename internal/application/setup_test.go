package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/galactic-postbox/internal/domain/entity"
	"github.com/oksasatya/galactic-postbox/internal/infrastructure/memory"
	"github.com/oksasatya/galactic-postbox/pkg/helpers"
)

func init() {
	helpers.PasswordCost = bcrypt.MinCost
}

type fakePublisher struct {
	mu   sync.Mutex
	jobs []any
	err  error
}

func (p *fakePublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, body)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}

type testEnv struct {
	store     *memory.Store
	users     *memory.UserRepository
	addresses *memory.AddressRepository
	mailRepo  *memory.MailRepository
	jwt       *helpers.JWTManager
	auth      *AuthService
	mail      *MailService
	publisher *fakePublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	store.SeedCatalog(entity.DefaultCatalog())
	env := &testEnv{
		store:     store,
		users:     memory.NewUserRepository(store),
		addresses: memory.NewAddressRepository(store),
		mailRepo:  memory.NewMailRepository(store),
		jwt:       helpers.NewJWTManager("test-secret", time.Hour),
		publisher: &fakePublisher{},
	}
	env.auth = NewAuthService(env.users, env.addresses, env.jwt, nil, nil, nil)
	env.mail = NewMailService(env.users, env.mailRepo, NewQueueNotifier(env.publisher, "Galactic Postbox", "http://app.test/"), nil)
	return env
}

func (e *testEnv) register(t *testing.T, username, address string, custom bool) *entity.User {
	t.Helper()
	res, err := e.auth.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@postbox.test",
		Password: "secret1",
		Address:  AddressInput{Address: address, IsCustom: custom},
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return res.User
}

func kindOf(err error) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return nil
}
