package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/attendance-service-go/internal/config"
	appHTTP "github.com/cmlabs-hris/attendance-service-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-service-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-service-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-service-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-service-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-service-go/internal/service/attendance"
	correctionService "github.com/cmlabs-hris/attendance-service-go/internal/service/correction"
	"github.com/cmlabs-hris/attendance-service-go/internal/service/finalizer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Pool.Close()

	txRunner := postgresql.NewTxRunner(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	correctionRepo := postgresql.NewCorrectionRepository(db)
	shiftPolicyRepo := postgresql.NewShiftPolicyRepository(db)
	calendarRepo := postgresql.NewCalendarRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	leaseStore := postgresql.NewLeaseStore(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	attendanceSvc := attendanceService.NewAttendanceService(txRunner, attendanceRepo, shiftPolicyRepo)
	finalizerSvc := finalizer.NewService(
		txRunner,
		attendanceRepo,
		shiftPolicyRepo,
		calendarRepo,
		correctionRepo,
		employeeRepo,
		leaseStore,
		finalizer.Config{
			Buffer:              cfg.Finalizer.Buffer,
			LeaseTTL:            cfg.Finalizer.LeaseTTL,
			CollaboratorTimeout: cfg.Finalizer.CollaboratorTimeout,
			LookbackDays:        cfg.Finalizer.LookbackDays,
		},
	)
	correctionSvc := correctionService.NewCorrectionService(
		txRunner,
		correctionRepo,
		attendanceRepo,
		shiftPolicyRepo,
		finalizerSvc,
	)

	scheduler := cron.NewScheduler()
	finalizerSvc.RegisterJobs(scheduler, cfg.Finalizer.Interval)
	scheduler.Start()
	defer scheduler.Stop()

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	correctionHandler := appHTTP.NewCorrectionHandler(correctionSvc)
	finalizationHandler := appHTTP.NewFinalizationHandler(finalizerSvc)

	router := appHTTP.NewRouter(
		JWTService,
		attendanceHandler,
		correctionHandler,
		finalizationHandler,
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	server := &http.Server{Addr: port, Handler: router}

	go func() {
		fmt.Printf("Server running at http://localhost%s\n", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Println("Server error:", err)
		}
	}()

	// Block until interrupted, then stop the scheduler and close the pool
	// via the deferred calls.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down...")
	if err := server.Close(); err != nil {
		fmt.Println("Server close error:", err)
	}
}
