package seed

import (
	"context"
	"fmt"
	"log"

	"github.com/fishlog/fishlog-backend/internal/config"
	"github.com/fishlog/fishlog-backend/internal/repository"
	"github.com/fishlog/fishlog-backend/internal/service"
)

const demoPassword = "password123"

type angler struct {
	name  string
	email string
}

var demoAnglers = []angler{
	{name: "Jane Walleye", email: "jane@fishlog.app"},
	{name: "Sam Crappie", email: "sam@fishlog.app"},
}

// SeedData makes sure the configured admin exists. Outside production it
// also creates two demo anglers sharing a group. Safe to run on every start.
func SeedData(ctx context.Context, cfg *config.Config, users repository.UserRepository, groups service.GroupService) error {
	if err := ensureAdmin(ctx, cfg, users); err != nil {
		return err
	}
	if cfg.IsProduction() {
		return nil
	}
	return seedDemo(ctx, users, groups)
}

func ensureAdmin(ctx context.Context, cfg *config.Config, users repository.UserRepository) error {
	existing, err := users.FindByEmail(ctx, cfg.AdminEmail)
	if err != nil {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	if existing != nil {
		if existing.IsAdmin {
			return nil
		}
		existing.IsAdmin = true
		if err := users.Update(ctx, existing); err != nil {
			return fmt.Errorf("failed to promote admin: %w", err)
		}
		log.Printf("[Seed] Promoted %s to admin", existing.Email)
		return nil
	}

	if cfg.AdminPassword == "" {
		log.Println("[Seed] ⚠️ ADMIN_PASSWORD not set, skipping admin user")
		return nil
	}

	hashed, err := service.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	avatar := service.DefaultAvatar(cfg.AdminName)
	admin := &repository.User{
		Email:    cfg.AdminEmail,
		Password: hashed,
		Name:     cfg.AdminName,
		Avatar:   &avatar,
		IsAdmin:  true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	log.Printf("[Seed] ✅ Created admin user %s", admin.Email)
	return nil
}

func seedDemo(ctx context.Context, users repository.UserRepository, groups service.GroupService) error {
	existing, err := users.FindByEmail(ctx, demoAnglers[0].email)
	if err != nil {
		return fmt.Errorf("failed to look up demo user: %w", err)
	}
	if existing != nil {
		log.Println("[Seed] Demo data already exists, skipping...")
		return nil
	}

	log.Println("[Seed] 🌱 Creating demo anglers...")

	hashed, err := service.HashPassword(demoPassword)
	if err != nil {
		return err
	}

	created := make([]*repository.User, 0, len(demoAnglers))
	for _, a := range demoAnglers {
		avatar := service.DefaultAvatar(a.name)
		u := &repository.User{Email: a.email, Password: hashed, Name: a.name, Avatar: &avatar}
		if err := users.Create(ctx, u); err != nil {
			return fmt.Errorf("failed to create %s: %w", a.email, err)
		}
		created = append(created, u)
	}

	group, err := groups.Create(ctx, created[0].ID, "Bass Masters", "Weekend bass fishing crew")
	if err != nil {
		return fmt.Errorf("failed to create demo group: %w", err)
	}
	if _, err := groups.AddMember(ctx, created[0].ID, group.ID, created[1].ID); err != nil {
		return fmt.Errorf("failed to add demo member: %w", err)
	}

	log.Printf("✅ Created %d anglers and group %q", len(created), group.Name)
	return nil
}
