package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"aves/lms-app/internal/config"
)

// Open connects to MySQL and verifies the connection.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	auth := cfg.User
	if cfg.Password != "" {
		auth = fmt.Sprintf("%s:%s", cfg.User, cfg.Password)
	}
	// parseTime=true -> DATETIME scans into time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, cfg.Host, cfg.Port, cfg.Name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the application tables when they do not exist yet.
// Enrollments are deliberately absent: they live in the file-backed store.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			role ENUM('student','teacher','admin') NOT NULL,
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_email (email),
			INDEX idx_role (role)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

		`CREATE TABLE IF NOT EXISTS study_materials (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			subject VARCHAR(255) NOT NULL,
			description TEXT,
			file_path VARCHAR(500) NOT NULL,
			original_name VARCHAR(255) NOT NULL,
			uploaded_by BIGINT NOT NULL,
			approval_status ENUM('pending','approved','rejected') DEFAULT 'pending',
			upload_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			approved_by BIGINT NULL,
			approval_date TIMESTAMP NULL,
			download_count BIGINT DEFAULT 0,
			FOREIGN KEY (uploaded_by) REFERENCES users(id) ON DELETE CASCADE,
			INDEX idx_status (approval_status),
			INDEX idx_subject (subject)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

		`CREATE TABLE IF NOT EXISTS student_profiles (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255),
			phone VARCHAR(20),
			register_number VARCHAR(100),
			department VARCHAR(255),
			course_details VARCHAR(255),
			photo_path VARCHAR(500),
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

		`CREATE TABLE IF NOT EXISTS teacher_profiles (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255),
			phone VARCHAR(20),
			department VARCHAR(255),
			posting VARCHAR(255),
			specialization VARCHAR(255),
			bio TEXT,
			photo_path VARCHAR(500),
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

		`CREATE TABLE IF NOT EXISTS admin_profiles (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255),
			phone VARCHAR(20),
			department VARCHAR(255),
			designation VARCHAR(255),
			photo_path VARCHAR(500),
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
