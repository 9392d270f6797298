package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Named signal configurations
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			hand_side TEXT NOT NULL CHECK(hand_side IN ('left', 'right')),
			deadzone REAL NOT NULL,
			max_distance REAL NOT NULL,
			scale_factor REAL NOT NULL,
			deadzone_policy TEXT NOT NULL CHECK(deadzone_policy IN ('reset', 'hold')),
			reference_joint TEXT NOT NULL CHECK(reference_joint IN ('index_knuckle', 'index_tip')),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Scene entities bound to a profile
		`CREATE TABLE IF NOT EXISTS bindings (
			id TEXT PRIMARY KEY,
			entity TEXT NOT NULL UNIQUE,
			profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			movement_speed REAL NOT NULL DEFAULT 1.0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Recorded tracking sessions
		`CREATE TABLE IF NOT EXISTS recordings (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			frames INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS recording_frames (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recording_id TEXT NOT NULL REFERENCES recordings(id) ON DELETE CASCADE,
			sequence INTEGER NOT NULL,
			offset_ms INTEGER NOT NULL,
			data TEXT NOT NULL
		)`,

		// Key-value application settings
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_bindings_profile_id ON bindings(profile_id)`,
		`CREATE INDEX IF NOT EXISTS idx_recording_frames_recording_id ON recording_frames(recording_id, sequence)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
