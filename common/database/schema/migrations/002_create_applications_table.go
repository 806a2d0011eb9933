package migrations

import "jobhub/common/database/schema"

var CreateApplicationsTable = schema.Migration{
	Version:     2,
	Description: "Create applications table",
	Up: `
		CREATE TABLE IF NOT EXISTS applications (
			position UInt32,
			job_id String,
			applied_at DateTime64(3, 'UTC')
		) ENGINE = MergeTree()
		ORDER BY position
	`,
	Down: `DROP TABLE IF EXISTS applications`,
}

