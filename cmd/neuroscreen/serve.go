package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/neuroscreen/internal/server"
	"github.com/verte-zerg/neuroscreen/internal/vocab"
)

const defaultAddr = "127.0.0.1:8000"

var (
	serveAddr       string
	serveVocabulary string
	serveRecord     bool
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the report API over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&serveVocabulary, "vocabulary", "", "default indicator vocabulary file")
	cmd.Flags().BoolVar(&serveRecord, "record", true, "record built reports in history")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)
	applyBoolConfig(cmd, "record", &serveRecord, fileCfg.Server.Record)
	applyStringConfig(cmd, "vocabulary", &serveVocabulary, fileCfg.Report.Vocabulary)

	log, err := newLogger(fileCfg, true)
	if err != nil {
		return err
	}
	defer syncLogger(log)

	vocabulary, err := vocab.Resolve(serveVocabulary)
	if err != nil {
		return err
	}

	if logLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	opts := []server.Option{
		server.WithLogger(log),
		server.WithVocabulary(vocabulary),
	}
	if serveRecord {
		st, closeStore, err := openStore(log)
		if err != nil {
			return err
		}
		defer closeStore()
		opts = append(opts, server.WithReportSink(st))
	}

	ctx, cancel := signalContext()
	defer cancel()
	log.Info("starting server", zap.String("addr", serveAddr), zap.Bool("record", serveRecord))
	if err := server.New(opts...).ListenAndServe(ctx, serveAddr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
