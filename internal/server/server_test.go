package server_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/asset-agent/internal/config"
	"github.com/kubev2v/asset-agent/internal/server"
)

var _ = Describe("Server", func() {
	var srv *server.Server

	BeforeEach(func() {
		cfg, err := config.NewConfigurationWithDefaults()
		Expect(err).NotTo(HaveOccurred())

		srv = server.NewServer(cfg, func(router *gin.RouterGroup) {
			router.GET("/ping", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"pong": true})
			})
		})
	})

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	It("should mount the handlers under /api/v1", func() {
		w := get("/api/v1/ping")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("pong"))
	})

	It("should expose prometheus metrics", func() {
		w := get("/metrics")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("go_goroutines"))
	})

	It("should answer unknown routes with a JSON 404", func() {
		w := get("/nope")

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))
	})
})
