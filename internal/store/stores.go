package store

import "github.com/jackc/pgx/v5/pgxpool"

// Stores bundles every store over one pool so wiring stays in one place.
type Stores struct {
	Issues        IssueStore
	TestCaseLinks TestCaseLinkStore
	Candidates    AutomationCandidateStore
	BuildResults  BuildResultStore
	Projects      ProjectStore
	Testers       TesterStore
	Domains       DomainStore
}

func New(pool *pgxpool.Pool) *Stores {
	return &Stores{
		Issues:        newIssueStore(pool),
		TestCaseLinks: newTestCaseLinkStore(pool),
		Candidates:    newAutomationCandidateStore(pool),
		BuildResults:  newBuildResultStore(pool),
		Projects:      newProjectStore(pool),
		Testers:       newTesterStore(pool),
		Domains:       newDomainStore(pool),
	}
}
