package faqdex

import "context"

// Health checks the health of all system components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status:        string(report.Status),
		Checks:        checks,
		CorpusEntries: report.CorpusEntries,
	}
}
