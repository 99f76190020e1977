package qtest_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"qacoverage.app/api-server/core/config"
	"qacoverage.app/api-server/internal/qtest"
)

var _ = Describe("SessionManager", func() {
	var (
		logins  int
		server  *httptest.Server
		clock   *clockwork.FakeClock
		session *qtest.SessionManager
	)

	BeforeEach(func() {
		logins = 0
		mux := http.NewServeMux()
		mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
			logins++
			json.NewEncoder(w).Encode(map[string]string{
				"access_token": fmt.Sprintf("token-%d", logins),
			})
		})
		server = httptest.NewServer(mux)

		clock = clockwork.NewFakeClock()
		session = qtest.NewSessionManager(config.QTestConfig{
			URL:       server.URL,
			Username:  "qa-bot",
			Password:  "secret",
			ProjectID: "11",
		}, clock)
	})

	AfterEach(func() {
		server.Close()
	})

	It("logs in once and reuses the cached token", func() {
		token, err := session.Token(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(token).To(Equal("token-1"))

		token, err = session.Token(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(token).To(Equal("token-1"))
		Expect(logins).To(Equal(1))
	})

	It("re-authenticates once the clock passes the expiry boundary", func() {
		_, err := session.Token(context.Background())
		Expect(err).NotTo(HaveOccurred())

		clock.Advance(49 * time.Minute)
		token, err := session.Token(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(token).To(Equal("token-1"))

		clock.Advance(2 * time.Minute)
		token, err = session.Token(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(token).To(Equal("token-2"))
		Expect(logins).To(Equal(2))
	})

	It("reports unconfigured sessions as errors", func() {
		bare := qtest.NewSessionManager(config.QTestConfig{}, clock)
		_, err := bare.Token(context.Background())
		Expect(err).To(HaveOccurred())
	})

	It("tracks authentication state against the clock", func() {
		Expect(session.Authenticated()).To(BeFalse())

		_, err := session.Token(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(session.Authenticated()).To(BeTrue())

		clock.Advance(51 * time.Minute)
		Expect(session.Authenticated()).To(BeFalse())
	})
})
