// Package manager bootstraps the target PostgreSQL database before a load.
//
// Operations run on a connection to a maintenance database, because a
// database cannot be created from a session connected to itself. Names are
// quoted with pgx.Identifier.Sanitize, so names with spaces, quotes or
// semicolons are created verbatim.
//
//	mgr := manager.New()
//	exists, err := mgr.Exists(ctx, maintenanceConn, "ny_taxi")
//	if err == nil && !exists {
//	    err = mgr.Create(ctx, maintenanceConn, "ny_taxi")
//	}
package manager
