// Package ports defines the interfaces the approval engine consumes from
// its collaborators: the relational store, the user/role directory and the
// notifier. Application services depend on these interfaces; the
// infrastructure layer provides the SQL-backed implementations.
package ports
