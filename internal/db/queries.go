package db

const (
	InsertUser = `
		INSERT INTO users (id, email, password_hash, role)
		VALUES (?, ?, ?, ?)
	`

	GetUserByID = `
		SELECT id, email, password_hash, role, created_at
		FROM users WHERE id = ?
	`

	GetUserByEmail = `
		SELECT id, email, password_hash, role, created_at
		FROM users WHERE email = ?
	`
)

const (
	InsertJob = `
		INSERT INTO print_jobs (id, submitter_id, submitter_email, submitter_role, slot_id, files_json, copies, color_mode, sided, stapled, instructions, status, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	GetJobByID = `
		SELECT id, submitter_id, submitter_email, submitter_role, slot_id, files_json, copies, color_mode, sided, stapled, instructions, status, submitted_at
		FROM print_jobs WHERE id = ?
	`

	UpdateJobStatus = `
		UPDATE print_jobs SET status = ? WHERE id = ?
	`

	DeleteJob = `DELETE FROM print_jobs WHERE id = ?`

	CountJobsByStatuses = `
		SELECT COUNT(*) FROM print_jobs WHERE status IN (%s)
	`
)

const (
	GetCounter = `
		SELECT value FROM counters WHERE key = ?
	`

	UpsertCounter = `
		INSERT INTO counters (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
)

const (
	GetSetting = `SELECT value, encrypted FROM settings WHERE key = ?`

	SetSetting = `
		INSERT INTO settings (key, value, encrypted, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = ?, encrypted = ?, updated_at = CURRENT_TIMESTAMP
	`

	DeleteSetting = `DELETE FROM settings WHERE key = ?`
)
