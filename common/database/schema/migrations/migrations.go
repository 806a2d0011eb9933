package migrations

import "jobhub/common/database/schema"

// All lists every migration in version order.
var All = []schema.Migration{
	CreateLocalJobsTable,
	CreateApplicationsTable,
}
