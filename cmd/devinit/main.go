// Command devinit rebuilds the Users table and seeds the sample accounts for
// local development. It drops existing users; never point it at a shared
// database.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/voxaiomni/admin-core/internal/user"
	"github.com/voxaiomni/admin-core/internal/user/entity"
	userrepo "github.com/voxaiomni/admin-core/internal/user/repo"
	"github.com/voxaiomni/admin-core/pkg/database"
	"github.com/voxaiomni/admin-core/pkg/utilities"
)

func main() {
	// .env.local overrides .env; Load never overwrites vars already set
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	dbCfg, err := database.ConfigFromEnv()
	if err != nil {
		sugar.Fatalf("db config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbm := database.NewManager(dbCfg, sugar.Named("db"))
	defer dbm.Close()

	sugar.Info("initializing database and adding sample users")
	ini := user.NewInitializer(userrepo.NewUserRepo(dbm), nil, sugar.Named("init"))
	ini.RevealCredentials = true

	seeded, err := ini.InitializeDatabase(ctx)
	if err != nil {
		sugar.Errorw("database initialization failed", "err", err)
		sugar.Error("check that the database server is running and the credentials in .env.local are correct")
		dbm.Close()
		lg.Sync()
		os.Exit(1)
	}

	sugar.Info("database initialization completed")
	printSummary(os.Stdout, seeded)
}

func panelName(r entity.Role) string {
	if r == entity.RoleSuperAdmin {
		return "Super Admin Panel"
	}
	return "Client Admin Panel"
}

// printSummary writes one line per seeded account.
func printSummary(w io.Writer, seeded []entity.SeededAccount) {
	fmt.Fprintln(w, "Sample user credentials for testing (from Users table):")
	for _, s := range seeded {
		fmt.Fprintf(w, "  %s -> User Identifier: %s, Password: %s\n", panelName(s.Role), s.Identifier, s.Password)
	}
}
