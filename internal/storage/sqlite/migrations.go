package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// IMPORTANT: Parent tables must be created before the tables that reference them.
const schema = `
CREATE TABLE IF NOT EXISTS clubs (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    contact_email TEXT NOT NULL,
    club_dues_cents INTEGER NOT NULL,
    flag_fee_cents INTEGER NOT NULL,
    contact_fee_cents INTEGER NOT NULL,
    current_season TEXT NOT NULL,
    practice_location TEXT,
    practice_schedule TEXT,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS guardians (
    id TEXT PRIMARY KEY,
    user_id TEXT UNIQUE,
    email TEXT NOT NULL,
    first_name TEXT NOT NULL DEFAULT '',
    last_name TEXT NOT NULL DEFAULT '',
    phone TEXT,
    address_line1 TEXT,
    address_line2 TEXT,
    city TEXT,
    state TEXT,
    postal_code TEXT,
    country TEXT NOT NULL DEFAULT 'US',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS players (
    id TEXT PRIMARY KEY,
    guardian_id TEXT NOT NULL,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    date_of_birth TEXT NOT NULL,
    gender TEXT NOT NULL,
    medical_conditions TEXT,
    allergies TEXT,
    emergency_contact_name TEXT,
    emergency_contact_phone TEXT,
    emergency_contact_relationship TEXT,
    headshot_url TEXT,
    dob_document_url TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    UNIQUE (guardian_id, first_name, last_name, date_of_birth),
    FOREIGN KEY (guardian_id) REFERENCES guardians(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS registrations (
    id TEXT PRIMARY KEY,
    player_id TEXT NOT NULL,
    club_id TEXT NOT NULL,
    season TEXT NOT NULL,
    division TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft',
    club_dues_paid INTEGER NOT NULL DEFAULT 0,
    payment_amount_cents INTEGER,
    payment_ref TEXT,
    payment_date INTEGER,
    draft_step INTEGER NOT NULL DEFAULT 0,
    client_temp_id TEXT,
    notes TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    UNIQUE (player_id, club_id, season),
    FOREIGN KEY (player_id) REFERENCES players(id) ON DELETE CASCADE,
    FOREIGN KEY (club_id) REFERENCES clubs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS payments (
    id TEXT PRIMARY KEY,
    registration_id TEXT NOT NULL,
    club_id TEXT NOT NULL,
    guardian_id TEXT NOT NULL,
    total_amount_cents INTEGER NOT NULL,
    club_portion_cents INTEGER NOT NULL,
    governing_body_portion_cents INTEGER NOT NULL,
    platform_fee_cents INTEGER NOT NULL DEFAULT 0,
    payment_ref TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    UNIQUE (registration_id, payment_ref),
    FOREIGN KEY (registration_id) REFERENCES registrations(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS processed_events (
    payment_ref TEXT PRIMARY KEY,
    registration_ids TEXT NOT NULL,
    amount_cents INTEGER NOT NULL,
    processed_at INTEGER NOT NULL,
    notified_at INTEGER
);

CREATE TABLE IF NOT EXISTS club_admins (
    club_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    email TEXT NOT NULL,
    name TEXT,
    role TEXT NOT NULL,
    permissions TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (club_id, user_id),
    FOREIGN KEY (club_id) REFERENCES clubs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_players_guardian_id ON players(guardian_id);
CREATE INDEX IF NOT EXISTS idx_registrations_club_season ON registrations(club_id, season);
CREATE INDEX IF NOT EXISTS idx_registrations_player_id ON registrations(player_id);
CREATE INDEX IF NOT EXISTS idx_payments_club_id ON payments(club_id);
CREATE INDEX IF NOT EXISTS idx_guardians_email ON guardians(email);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
