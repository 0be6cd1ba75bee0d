package database

import (
    "context"
    "database/sql"
    "strings"
)

// Schema holds the DDL for every table the service owns.  All timestamps
// are stored as UTC DATETIMEs; seat_records carries one row per
// (game, player) that has ever occupied or queued for a seat.
const Schema = `
CREATE TABLE IF NOT EXISTS games (
    id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    game_code VARCHAR(32) NOT NULL,
    club_code VARCHAR(32) NULL,
    host_uuid VARCHAR(64) NOT NULL,
    status VARCHAR(32) NOT NULL DEFAULT 'CONFIGURED',
    table_status VARCHAR(40) NOT NULL DEFAULT 'WAITING_TO_BE_STARTED',
    max_players INT UNSIGNED NOT NULL,
    waitlist_counter INT UNSIGNED NOT NULL DEFAULT 0,
    waiting_list_count INT UNSIGNED NOT NULL DEFAULT 0,
    seating_in_progress BOOLEAN NOT NULL DEFAULT FALSE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (id),
    UNIQUE KEY uq_games_code (game_code)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS game_settings (
    game_code VARCHAR(32) NOT NULL,
    buyin_min BIGINT NOT NULL,
    buyin_max BIGINT NOT NULL,
    buyin_approval BOOLEAN NOT NULL DEFAULT FALSE,
    buyin_timeout INT UNSIGNED NOT NULL DEFAULT 60,
    break_length INT UNSIGNED NOT NULL DEFAULT 300,
    ip_check BOOLEAN NOT NULL DEFAULT FALSE,
    gps_check BOOLEAN NOT NULL DEFAULT FALSE,
    gps_allowed_distance DOUBLE NOT NULL DEFAULT 0,
    ip_gps_check_interval INT UNSIGNED NOT NULL DEFAULT 900,
    waitlist_sitting_timeout INT UNSIGNED NOT NULL DEFAULT 180,
    PRIMARY KEY (game_code)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS players (
    id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    uuid VARCHAR(64) NOT NULL,
    name VARCHAR(100) NOT NULL,
    ip_address VARCHAR(64) NULL,
    location_lat DOUBLE NULL,
    location_long DOUBLE NULL,
    location_updated_at DATETIME NULL,
    PRIMARY KEY (id),
    UNIQUE KEY uq_players_uuid (uuid)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS club_members (
    club_code VARCHAR(32) NOT NULL,
    player_uuid VARCHAR(64) NOT NULL,
    credit_limit BIGINT NOT NULL DEFAULT -1,
    is_owner BOOLEAN NOT NULL DEFAULT FALSE,
    is_manager BOOLEAN NOT NULL DEFAULT FALSE,
    auto_buyin_approval BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (club_code, player_uuid)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS seat_records (
    id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    game_id BIGINT UNSIGNED NOT NULL,
    player_id BIGINT UNSIGNED NOT NULL,
    player_name VARCHAR(100) NOT NULL,
    player_uuid VARCHAR(64) NOT NULL,
    seat_no INT UNSIGNED NOT NULL DEFAULT 0,
    status VARCHAR(32) NOT NULL DEFAULT 'NOT_PLAYING',
    stack BIGINT NOT NULL DEFAULT 0,
    buy_in BIGINT NOT NULL DEFAULT 0,
    no_of_buyins INT UNSIGNED NOT NULL DEFAULT 0,
    sat_at DATETIME NULL,
    session_time INT UNSIGNED NOT NULL DEFAULT 0,
    waiting_from DATETIME NULL,
    waitlist_num INT UNSIGNED NOT NULL DEFAULT 0,
    waitlist_time_exp DATETIME NULL,
    break_time_started_at DATETIME NULL,
    break_time_exp_at DATETIME NULL,
    PRIMARY KEY (id),
    UNIQUE KEY uq_seat_records_game_player (game_id, player_id),
    KEY ix_seat_records_game_status (game_id, status),
    KEY ix_seat_records_game_seat (game_id, seat_no)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS deferred_updates (
    id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    game_id BIGINT UNSIGNED NOT NULL,
    player_id BIGINT UNSIGNED NOT NULL DEFAULT 0,
    player_name VARCHAR(100) NOT NULL DEFAULT '',
    player_uuid VARCHAR(64) NOT NULL DEFAULT '',
    update_kind VARCHAR(32) NOT NULL,
    buyin_amount BIGINT NOT NULL DEFAULT 0,
    end_reason VARCHAR(255) NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (id),
    KEY ix_deferred_updates_game_kind (game_id, player_id, update_kind)
) ENGINE=InnoDB;
`

// EnsureSchema creates the service's tables when they do not exist.  It is
// called once at startup; statement-by-statement execution keeps MySQL's
// single-statement Exec restriction happy.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
    for _, stmt := range strings.Split(Schema, ";") {
        stmt = strings.TrimSpace(stmt)
        if stmt == "" {
            continue
        }
        if _, err := db.ExecContext(ctx, stmt); err != nil {
            return err
        }
    }
    return nil
}
