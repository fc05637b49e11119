package sqladapter

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/rmazhuga/stairway/internal/retry"
)

const (
	DefaultConnectionAttempts    = 20
	DefaultConnectionAttemptStep = 2 * time.Second
)

type ConnectOptions struct {
	MaxAttempts int
	RetryStep   time.Duration
}

func NewDefaultConnectOptions() *ConnectOptions {
	return &ConnectOptions{
		MaxAttempts: DefaultConnectionAttempts,
		RetryStep:   DefaultConnectionAttemptStep,
	}
}

// RetryingConnector checks out a single connection from the pool with
// incremental backoff and keeps it for the adapter's lifetime. Advisory
// locks are session-scoped, so every statement has to go through the
// same connection.
type RetryingConnector struct {
	options *ConnectOptions
	db      *sql.DB
	conn    *sql.Conn
}

func MakeRetryingConnector(db *sql.DB, options *ConnectOptions) *RetryingConnector {
	if options == nil {
		options = NewDefaultConnectOptions()
	}

	return &RetryingConnector{db: db, options: options}
}

func (c *RetryingConnector) Connect(ctx context.Context) (*sql.Conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}

	err := retry.Incremental(ctx, c.options.RetryStep, c.options.MaxAttempts, func(attempt int) error {
		conn, err := c.db.Conn(ctx)
		if err != nil {
			return retry.Error(errors.Wrap(err, "could not establish DB connection"), attempt)
		}

		if err := conn.PingContext(ctx); err != nil {
			if closeErr := conn.Close(); closeErr != nil {
				err = errors.Wrap(err, closeErr.Error())
			}

			return retry.Error(errors.Wrap(err, "db ping failed"), attempt)
		}

		c.conn = conn

		return nil
	})

	if err != nil {
		return nil, err
	}

	return c.conn, nil
}

func (c *RetryingConnector) Close() error {
	if c.conn == nil {
		return nil
	}

	conn := c.conn
	c.conn = nil

	if err := conn.Close(); err != nil {
		return errors.Wrap(err, "could not close the database connection")
	}

	return nil
}
