package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// 停机时给在途的打分请求留的排空窗口。
const shutdownTimeout = 5 * time.Second

// Server 对外 HTTP 服务的生命周期。
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start 阻塞到监听失败或 Stop 被调用。主动停机不算错误。
func (s *Server) Start() error {
	s.logger.Info("his-appraisal HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 优雅停机，在途请求最多等 shutdownTimeout。
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("his-appraisal HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}
