// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/authvault/authvault/internal/store"
)

// setupPostgresContainer starts a migrated PostgreSQL container and returns a
// connected pool.
func setupPostgresContainer() (*pgxpool.Pool, func(), error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("authvault_test"),
		postgres.WithUsername("authvault"),
		postgres.WithPassword("authvault"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		return nil, nil, err
	}
	if err := migrator.Up(); err != nil {
		return nil, nil, err
	}
	if err := migrator.Close(); err != nil {
		return nil, nil, err
	}

	pool, err := store.Connect(ctx, connStr)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}

	return pool, cleanup, nil
}

var _ = Describe("Connect", func() {
	var pool *pgxpool.Pool
	var cleanup func()

	BeforeEach(func() {
		var err error
		pool, cleanup, err = setupPostgresContainer()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cleanup()
	})

	It("returns a pool that answers pings", func() {
		ctx := context.Background()
		Expect(pool.Ping(ctx)).To(Succeed())
	})

	Describe("migrated schema", func() {
		It("creates the accounts table", func() {
			ctx := context.Background()
			var count int
			err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})

		It("creates the recovery_tokens table", func() {
			ctx := context.Background()
			var count int
			err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM recovery_tokens`).Scan(&count)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})

		It("enforces the unique email constraint", func() {
			ctx := context.Background()
			insert := `INSERT INTO accounts (id, email, password_hash) VALUES ($1, $2, $3)`

			_, err := pool.Exec(ctx, insert, "01AAAAAAAAAAAAAAAAAAAAAAAA", "dup@example.com", "hash")
			Expect(err).NotTo(HaveOccurred())

			_, err = pool.Exec(ctx, insert, "01BBBBBBBBBBBBBBBBBBBBBBBB", "dup@example.com", "hash")
			Expect(err).To(HaveOccurred())
		})

		It("cascades token deletion from accounts", func() {
			ctx := context.Background()

			_, err := pool.Exec(ctx,
				`INSERT INTO accounts (id, email, password_hash) VALUES ($1, $2, $3)`,
				"01CCCCCCCCCCCCCCCCCCCCCCCC", "cascade@example.com", "hash")
			Expect(err).NotTo(HaveOccurred())

			_, err = pool.Exec(ctx,
				`INSERT INTO recovery_tokens (id, token, email) VALUES ($1, $2, $3)`,
				"01DDDDDDDDDDDDDDDDDDDDDDDD", "tok-cascade", "cascade@example.com")
			Expect(err).NotTo(HaveOccurred())

			_, err = pool.Exec(ctx, `DELETE FROM accounts WHERE email = $1`, "cascade@example.com")
			Expect(err).NotTo(HaveOccurred())

			var count int
			err = pool.QueryRow(ctx,
				`SELECT COUNT(*) FROM recovery_tokens WHERE email = $1`, "cascade@example.com").Scan(&count)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})
	})
})
