package main

import (
	"ashley/bizerror"
	"ashley/client/es"
	"ashley/client/s3"
	"ashley/common"
	"ashley/domain"
	"ashley/event"
	"ashley/indices"
	"ashley/infra/tracing"
	"ashley/persistence"
	"ashley/servehttp"
	"ashley/session"
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

func main() {
	log.Println("service start")

	closer := bootstrapTracing()
	if closer != nil {
		defer closer.Close()
	}

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		log.Fatalf("parse database config failed %v\n", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			log.Fatalf("failed to prepare database %v\n", err)
		}
	}

	// connect database
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		log.Fatalf("database conneciton failed %v\n", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	if err := migrate(ds); err != nil {
		log.Fatalf("database migration failed %v\n", err)
	}

	es.CreateClientFromEnv()
	s3.Bootstrap()

	event.EventHandlers = append(event.EventHandlers,
		indices.IndexWorkflowEventHandle, indices.IndexInspectionEventHandle)

	engine := gin.New()
	engine.Use(gin.Recovery(), tracing.TracingIngress(), bizerror.ErrorHandling())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, common.GetServiceName())
	})

	auth := session.SimpleAuthFilter()
	servehttp.RegisterWorkflowRestAPI(engine, auth)
	servehttp.RegisterApprovalRestAPI(engine, auth)
	servehttp.RegisterInspectionRestAPI(engine, auth)
	servehttp.RegisterCAPARestAPI(engine, auth)
	servehttp.RegisterAlertRestAPI(engine, auth)
	servehttp.RegisterPhotoRestAPI(engine, auth)
	indices.RegisterIndicesRestAPI(engine, auth)

	servehttp.StartHTTPServer(engine)
}

func migrate(ds *persistence.DataSourceManager) error {
	db := ds.GormDB(context.Background())
	return db.AutoMigrate(
		&domain.DesignAsset{},
		&domain.DesignApprovalWorkflow{},
		&domain.WorkflowStage{},
		&domain.DesignApproval{},
		&domain.QCInspectionPoint{},
		&domain.QCInspection{},
		&domain.QCCriteriaResult{},
		&domain.QCDefect{},
		&domain.QCDefectType{},
		&domain.CAPATask{},
		&domain.QualityAlert{},
		&event.EventRecord{},
	).Error
}

func bootstrapTracing() interface{ Close() error } {
	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		log.Printf("tracing config failed, tracing disabled: %v", err)
		return nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = common.GetServiceName()
	}
	tracer, closer, err := cfg.NewTracer()
	if err != nil {
		log.Printf("tracer bootstrap failed, tracing disabled: %v", err)
		return nil
	}
	opentracing.SetGlobalTracer(tracer)
	return closer
}
