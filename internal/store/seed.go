package store

import (
	"context"
	"fmt"
	"log/slog"

	"qacoverage.app/api-server/common/id"
	"qacoverage.app/api-server/internal/model"
)

// Seed installs the reference data (domains, projects, testers) used by the
// mapping UI when the tables are empty. Re-running against a populated
// database is a no-op.
func Seed(ctx context.Context, stores *Stores) error {
	n, err := stores.Domains.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting domains: %w", err)
	}
	if n > 0 {
		return nil
	}

	domainIDs := make(map[string]int64)
	for _, name := range prefilledDomains() {
		domain := &model.Domain{ID: id.New(), Name: name}
		if err := stores.Domains.Create(ctx, domain); err != nil {
			return fmt.Errorf("seeding domain %q: %w", name, err)
		}
		domainIDs[name] = domain.ID
	}

	for _, p := range prefilledProjects() {
		project := &model.Project{
			ID:          id.New(),
			Name:        p.name,
			Description: p.description,
		}
		if domainID, ok := domainIDs[p.domain]; ok {
			project.DomainID = &domainID
		}
		if err := stores.Projects.Create(ctx, project); err != nil {
			return fmt.Errorf("seeding project %q: %w", p.name, err)
		}
	}

	for _, name := range prefilledTesters() {
		tester := &model.Tester{ID: id.New(), Name: name, Status: "ACTIVE"}
		if err := stores.Testers.Create(ctx, tester); err != nil {
			return fmt.Errorf("seeding tester %q: %w", name, err)
		}
	}

	slog.InfoContext(ctx, "seeded reference data",
		"domains", len(prefilledDomains()),
		"projects", len(prefilledProjects()),
		"testers", len(prefilledTesters()),
	)
	return nil
}

type seedProject struct {
	name        string
	description string
	domain      string
}

func prefilledDomains() []string {
	return []string{"Billing", "Checkout", "Inventory", "Platform"}
}

func prefilledProjects() []seedProject {
	return []seedProject{
		{name: "billing-regression", description: "Billing regression pack", domain: "Billing"},
		{name: "checkout-smoke", description: "Checkout smoke suite", domain: "Checkout"},
		{name: "inventory-e2e", description: "Inventory end-to-end suite", domain: "Inventory"},
		{name: "platform-api", description: "Platform API contract suite", domain: "Platform"},
	}
}

func prefilledTesters() []string {
	return []string{"qa_1", "qa_2", "qa_3"}
}
