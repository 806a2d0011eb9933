package migrations

import "jobhub/common/database/schema"

var CreateLocalJobsTable = schema.Migration{
	Version:     1,
	Description: "Create local_jobs table",
	Up: `
		CREATE TABLE IF NOT EXISTS local_jobs (
			position UInt32,
			id String,
			title String,
			company String,
			location LowCardinality(String),
			employment_type LowCardinality(String),
			experience LowCardinality(String),
			salary_min Float64,
			salary_max Float64,
			tags Array(String),
			description String,
			requirements Array(String),
			benefits Array(String),
			posted_at DateTime64(3, 'UTC')
		) ENGINE = MergeTree()
		ORDER BY position
	`,
	Down: `DROP TABLE IF EXISTS local_jobs`,
}
