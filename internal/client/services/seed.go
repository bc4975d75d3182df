package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/webkech/internal/client/models"
	"github.com/dmitrijs2005/webkech/internal/cryptox"
)

const (
	DemoAccountID = "demo-user-1"
	DemoEmail     = "demo@webkech.com"
	demoSecret    = "demo123"
)

// SeedDemo writes the demo account and its credential when the accounts
// collection is empty. Existing accounts are never touched.
func (s *sessionStore) SeedDemo(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.loadAccounts(ctx)
	if err != nil {
		return err
	}
	if len(accounts) > 0 {
		s.logger.Debug(ctx, "demo seed skipped", "accounts", len(accounts))
		return nil
	}

	credentials, err := s.loadCredentials(ctx)
	if err != nil {
		return err
	}

	hash, err := cryptox.HashSecret([]byte(demoSecret), s.kdf)
	if err != nil {
		return fmt.Errorf("hash demo secret: %w", err)
	}

	demo := models.Account{ID: DemoAccountID, Email: DemoEmail, CreatedAt: s.clock.Now().UTC()}
	batch, err := encodeBatch(
		s.keys.accounts, []models.Account{demo},
		s.keys.credentials, append(withoutCredential(credentials, DemoEmail),
			models.Credential{Email: DemoEmail, SecretHash: hash, AccountID: DemoAccountID}),
	)
	if err != nil {
		return err
	}
	if err := s.repo.SetBatch(ctx, batch...); err != nil {
		return fmt.Errorf("seed demo account: %w", err)
	}

	s.logger.Info(ctx, "demo account seeded", "email", DemoEmail)
	return nil
}
