/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/client-go/kubernetes"
	clientscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/klog/v2"
	"k8s.io/klog/v2/klogr"
	ctrlruntime "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/Cray-HPE/ims/pkg/artifacts"
	commonconfig "github.com/Cray-HPE/ims/pkg/config"
	"github.com/Cray-HPE/ims/pkg/dispatcher"
	"github.com/Cray-HPE/ims/pkg/handlers"
	"github.com/Cray-HPE/ims/pkg/jobs"
	"github.com/Cray-HPE/ims/pkg/k8sclient"
	"github.com/Cray-HPE/ims/pkg/logging"
	"github.com/Cray-HPE/ims/pkg/manifest"
	"github.com/Cray-HPE/ims/pkg/options"
	"github.com/Cray-HPE/ims/pkg/records"
	"github.com/Cray-HPE/ims/pkg/remotenode"
	"github.com/Cray-HPE/ims/pkg/s3store"
	"github.com/Cray-HPE/ims/pkg/signingkey"
)

var scheme = runtime.NewScheme()

func init() {
	utilruntime.Must(clientscheme.AddToScheme(scheme))
}

type Server struct {
	opts        *options.Options
	httpServer  *http.Server
	handler     *handlers.Handler
	provisioner *signingkey.Provisioner
	ctx         context.Context
	isInited    bool
}

func NewServer() (*Server, error) {
	s := &Server{
		opts: &options.Options{},
		ctx:  ctrlruntime.SetupSignalHandler(),
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) init() error {
	gin.SetMode(gin.ReleaseMode)
	var err error
	if err = s.opts.InitFlags(); err != nil {
		klog.ErrorS(err, "failed to parse flags")
		return err
	}
	if err = s.initLogs(); err != nil {
		klog.ErrorS(err, "failed to init logs")
		return err
	}
	if err = s.initConfig(); err != nil {
		klog.ErrorS(err, "failed to init config")
		return err
	}
	if err = s.initHandler(); err != nil {
		klog.ErrorS(err, "failed to init handlers")
		return err
	}
	s.isInited = true
	return nil
}

func (s *Server) initLogs() error {
	if err := logging.Init(s.opts.LogfilePath, s.opts.LogFileSize,
		commonconfig.GetLogLevel()); err != nil {
		return err
	}
	ctrlruntime.SetLogger(klogr.NewWithOptions())
	return nil
}

func (s *Server) initConfig() error {
	path := s.opts.Config
	if path != "" {
		var err error
		if path, err = filepath.Abs(path); err != nil {
			return err
		}
	}
	return commonconfig.LoadConfig(path)
}

// initHandler wires the stores, clients and controllers the API serves.
func (s *Server) initHandler() error {
	ds, err := records.NewDatastore(commonconfig.GetDataStorePath())
	if err != nil {
		return err
	}
	imsClient, err := s3store.NewImsClient()
	if err != nil {
		return err
	}
	stsClient, err := s3store.NewStsClient()
	if err != nil {
		return err
	}
	validator := manifest.NewValidator(imsClient)
	artifactMgr := artifacts.NewManager(imsClient, stsClient)

	restCfg, err := k8sclient.GetRestConfig(s.opts.KubeConfig)
	if err != nil {
		return err
	}
	cli, err := client.New(restCfg, client.Options{Scheme: scheme})
	if err != nil {
		return err
	}
	clientSet, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return err
	}

	prober := remotenode.NewProber()
	scheduler := remotenode.NewScheduler(prober, ds.RemoteBuildNodes)
	jobController := jobs.NewController(ds, imsClient, dispatcher.New(cli), scheduler)

	s.handler = handlers.NewHandler(ds, imsClient, validator, artifactMgr, jobController, prober)
	s.provisioner = signingkey.NewProvisioner(clientSet)
	return nil
}

func (s *Server) Start() {
	if !s.isInited {
		klog.Errorf("please init the server first")
		return
	}

	// Best effort: without the signing key the service still serves records
	// and in-cluster jobs, it just cannot place work on remote nodes.
	if err := s.provisioner.Provision(s.ctx); err != nil {
		klog.ErrorS(err, "signing key provisioning failed, remote builds are disabled")
	}

	klog.Infof("starting ims server")
	go func() {
		if err := s.startHttpServer(); err != nil && err != http.ErrServerClosed {
			klog.ErrorS(err, "failed to start http server")
		}
	}()

	<-s.ctx.Done()
	s.Stop()
}

func (s *Server) Stop() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			klog.ErrorS(err, "failed to shutdown http server")
		}
	}
	klog.Info("ims server is stopped")
	klog.Flush()
}

func (s *Server) startHttpServer() error {
	if commonconfig.GetServerPort() <= 0 {
		return fmt.Errorf("the server port is not defined")
	}
	engine := handlers.InitHttpHandlers(s.handler)
	addr := fmt.Sprintf(":%d", commonconfig.GetServerPort())
	s.httpServer = &http.Server{Addr: addr, Handler: engine}
	klog.Infof("http server listen port: %d", commonconfig.GetServerPort())
	return s.httpServer.ListenAndServe()
}
