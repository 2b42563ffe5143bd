package main

import (
	"fmt"
	"net/http"

	"github.com/contactevin2u/AAHRMS-sub010/internal/config"
	appHTTP "github.com/contactevin2u/AAHRMS-sub010/internal/handler/http"
	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/database"
	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/jwt"
	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/runlock"
	"github.com/contactevin2u/AAHRMS-sub010/internal/repository/postgresql"
	contributionService "github.com/contactevin2u/AAHRMS-sub010/internal/service/contribution"
	payrunService "github.com/contactevin2u/AAHRMS-sub010/internal/service/payrun"
	resignationService "github.com/contactevin2u/AAHRMS-sub010/internal/service/resignation"
	"github.com/contactevin2u/AAHRMS-sub010/internal/statutory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	engine, err := statutory.NewEngine()
	if err != nil {
		fmt.Println("Error loading statutory tables:", err)
		return
	}

	employeeRepo := postgresql.NewEmployeeRepository(db)
	runRepo := postgresql.NewRunRepository(db)
	resignationRepo := postgresql.NewResignationRepository(db)
	leaveRepo := postgresql.NewLeaveRepository(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret)
	locks := runlock.NewRegistry()

	runService := payrunService.NewRunService(db, runRepo, employeeRepo, engine, locks, cfg.Payroll)
	resService := resignationService.NewResignationService(db, resignationRepo, leaveRepo, employeeRepo, runRepo, cfg.Payroll)
	contribService := contributionService.NewContributionService(runRepo, employeeRepo)

	payrunHandler := appHTTP.NewPayrunHandler(runService)
	resignationHandler := appHTTP.NewResignationHandler(resService)
	contributionHandler := appHTTP.NewContributionHandler(contribService)

	router := appHTTP.NewRouter(cfg, jwtService, payrunHandler, resignationHandler, contributionHandler)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Println("Server listening on", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
