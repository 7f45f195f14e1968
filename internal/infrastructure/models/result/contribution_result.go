package result

import "github.com/niklvrr/dotbounty/internal/domain"

// ContributionContext - вклад вместе со всей цепочкой Contribution -> Task -> Project
// и текущим кошельком контрибьютора
type ContributionContext struct {
	Contribution       domain.Contribution
	Task               domain.Task
	Project            domain.Project
	ContributorAddress string
}
