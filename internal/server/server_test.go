package server_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/genlab/internal/config"
	"github.com/san-kum/genlab/internal/experiment"
	"github.com/san-kum/genlab/internal/server"
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

var _ = Describe("Server", func() {
	var (
		srv *server.Server
		ts  *httptest.Server
	)

	BeforeEach(func() {
		cfg := config.DefaultConfig()
		cfg.Elementary.Cells = 40
		cfg.Elementary.Rows = 20
		cfg.Elementary.CellSize = 2
		srv = server.New(experiment.NewRegistry(), cfg)
		ts = httptest.NewServer(srv.Handler())
	})

	AfterEach(func() {
		ts.Close()
		srv.Close()
	})

	post := func(path, body string) *http.Response {
		resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	getState := func() server.StateInfo {
		resp, err := http.Get(ts.URL + "/state")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		var st server.StateInfo
		Expect(json.NewDecoder(resp.Body).Decode(&st)).To(Succeed())
		return st
	}

	It("reports ready before any run", func() {
		st := getState()
		Expect(st.Phase).To(Equal("ready"))
		Expect(st.Status).To(Equal("Ready!"))
	})

	It("lists generators", func() {
		resp, err := http.Get(ts.URL + "/generators")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		var gens map[string]string
		Expect(json.NewDecoder(resp.Body).Decode(&gens)).To(Succeed())
		Expect(gens).To(HaveKey("life"))
		Expect(gens).To(HaveKey("rft"))
	})

	It("rejects unknown generators", func() {
		resp := post("/start", `{"generator":"nope"}`)
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("returns the failing field on validation errors", func() {
		resp := post("/start", `{"generator":"cyclic","preset":"missing"}`)
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		var e server.ErrorResponse
		Expect(json.NewDecoder(resp.Body).Decode(&e)).To(Succeed())
		Expect(e.Field).To(Equal("preset"))
	})

	It("streams the finished frame over the websocket", func() {
		url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		var first envelope
		Expect(conn.ReadJSON(&first)).To(Succeed())
		Expect(first.Type).To(Equal(server.StateAction))

		resp := post("/start", `{"generator":"elementary"}`)
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusAccepted))

		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var frame server.FrameInfo
		for {
			var msg envelope
			Expect(conn.ReadJSON(&msg)).To(Succeed())
			if msg.Type == server.FrameAction {
				Expect(json.Unmarshal(msg.Data, &frame)).To(Succeed())
				if frame.Phase == "finished_ready" {
					break
				}
			}
		}

		Expect(frame.Label).To(Equal("rule30"))
		raw, err := base64.StdEncoding.DecodeString(frame.PNG)
		Expect(err).NotTo(HaveOccurred())
		img, err := png.Decode(bytes.NewReader(raw))
		Expect(err).NotTo(HaveOccurred())
		Expect(img.Bounds().Dx()).To(Equal(80))
		Expect(img.Bounds().Dy()).To(Equal(40))

		Eventually(getState).Should(HaveField("Phase", "finished_ready"))
		Expect(getState().RunID).NotTo(BeEmpty())
	})

	It("labels state messages with the run that sent them", func() {
		resp := post("/start", `{"generator":"elementary"}`)
		resp.Body.Close()
		Eventually(getState, 5*time.Second).Should(HaveField("Phase", "finished_ready"))
		prev := getState().RunID

		url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()
		var first envelope
		Expect(conn.ReadJSON(&first)).To(Succeed())

		resp = post("/start", `{"generator":"life"}`)
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusAccepted))

		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var st server.StateInfo
		for {
			var msg envelope
			Expect(conn.ReadJSON(&msg)).To(Succeed())
			if msg.Type != server.StateAction {
				continue
			}
			Expect(json.Unmarshal(msg.Data, &st)).To(Succeed())
			if st.Phase == "running" {
				break
			}
		}
		Expect(st.Generator).To(Equal("life"))
		Expect(st.RunID).NotTo(Equal(prev))
		Expect(st.RunID).To(Equal(getState().RunID))
	})

	It("cancels a running animation", func() {
		resp := post("/start", `{"generator":"life"}`)
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusAccepted))

		resp = post("/cancel", "")
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Consistently(func() string { return getState().Phase }, 200*time.Millisecond).ShouldNot(Equal("finished_ready"))
	})
})
