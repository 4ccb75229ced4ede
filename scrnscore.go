package scrnscore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tidwall/gjson"

	"github.com/nsip/scrn-score/internal/metrics"
	"github.com/nsip/scrn-score/internal/skill"
	"github.com/nsip/scrn-score/internal/store"
	"github.com/nsip/scrn-score/internal/util"
)

// nats subject score events are published on
const scoresSubject = "scrnscore.scores"

type ScrnScoreService struct {
	// embedded web server to handle webhook requests
	e *echo.Echo
	// the unique name of this service when running multiple instances
	serviceName string
	// the unique id of this service when running multiple instances
	serviceID string
	// the host address this service instance is running on
	serviceHost string
	// the port that this service instance is running on
	servicePort int
	// base url of the supabase (postgrest) store used for persistence
	storeURL string
	// the api key used to access the backing store
	storeKey string
	// url of the narrative text-generation collaborator, optional
	textgenURL string
	// nats server url for score event publishing, optional
	natsURL string

	// client for the backing store
	store skill.Backend
	// nats connection, nil when no nats url was configured
	nc *nats.Conn

	// state for the relay test endpoint
	relayMu sync.RWMutex
	relay   json.RawMessage
}

//
// create a new service instance
//
func New(options ...Option) (*ScrnScoreService, error) {

	srvc := ScrnScoreService{}

	if err := srvc.setOptions(options...); err != nil {
		return nil, err
	}

	srvc.store = store.New(srvc.storeURL, srvc.storeKey)

	if srvc.natsURL != "" {
		nc, err := nats.Connect(srvc.natsURL)
		if err != nil {
			return nil, errors.Wrap(err, "cannot connect to nats server")
		}
		srvc.nc = nc
	}

	srvc.e = echo.New()
	srvc.e.Logger.SetLevel(log.INFO)
	srvc.e.HTTPErrorHandler = errorEnvelopeHandler

	// add pingable method to know we're up
	srvc.e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, "OK")
	})
	// the webhook receiver for screener results
	srvc.e.POST("/calculate_score", srvc.buildCalculateScoreHandler())
	srvc.e.GET("/calculate_score", ackGetHandler)
	// request echo endpoint used by the screener tool while wiring
	// up its webhook configuration
	srvc.e.GET("/api_test", buildAPITestHandler())
	srvc.e.POST("/api_test", buildAPITestHandler())
	// generic key/value relay used by the companion app during beta
	srvc.e.GET("/send_to_java", srvc.buildRelayHandler())
	srvc.e.POST("/send_to_java", srvc.buildRelayHandler())
	// narrative generation pass-through
	srvc.e.POST("/generate_story", srvc.buildStoryHandler())
	// error injection endpoints for client-side handling tests
	srvc.e.POST("/trigger-400", trigger400Handler)
	srvc.e.GET("/trigger-403", trigger403Handler)
	srvc.e.GET("/trigger-500", trigger500Handler)
	// prometheus scrape endpoint
	srvc.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return &srvc, nil
}

//
// start the service running
//
func (s *ScrnScoreService) Start() {

	address := fmt.Sprintf("%s:%d", s.serviceHost, s.servicePort)
	go func(addr string) {
		if err := s.e.Start(addr); err != nil {
			s.e.Logger.Info("error starting server: ", err, ", shutting down...")
			// attempt clean shutdown by raising sig int
			p, _ := os.FindProcess(os.Getpid())
			p.Signal(os.Interrupt)
		}
	}(address)

}

//
// creates the webhook receiver method.
// takes the flat key/value payload sent by the screener tool,
// classifies every answer into the skill taxonomy, aggregates the
// per-category scores and persists both the raw values and the
// summaries before acknowledging the webhook.
//
func (s *ScrnScoreService) buildCalculateScoreHandler() echo.HandlerFunc {

	sName := s.serviceName
	sID := s.serviceID

	return func(c echo.Context) error {
		defer util.TimeTrack(time.Now(), "calculate_score")
		metrics.ScoreRequests.Inc()

		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if !gjson.ValidBytes(body) {
			return echo.NewHTTPError(http.StatusBadRequest, "request body must be json")
		}
		payload := gjson.ParseBytes(body)
		if !payload.IsObject() {
			return echo.NewHTTPError(http.StatusBadRequest, "request body must be a json object")
		}

		// classify the payload into the request-scoped store
		st := skill.NewScreenerStore()
		skill.Preprocess(st, payload)

		// identity is a bare email until real auth is integrated;
		// without it nothing can be persisted
		email := skill.ExtractEmail(payload)
		if email == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "must supply an email with screener results")
		}

		adapter := skill.NewAdapter(s.store)
		userID, err := adapter.InitializeUser(email)
		if err != nil {
			c.Logger().Error("cannot initialise user: ", err)
			metrics.StoreErrors.Inc()
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}

		scores := skill.ScoreAll(st)
		for domain, categories := range scores {
			for category, score := range categories {
				c.Logger().Infof("%s/%s summary: %d of %d correct",
					domain, category, score.CorrectAnswers, score.TotalQuestions)
			}
		}

		if err := adapter.InsertCategoryScores(userID, scores); err != nil {
			c.Logger().Error("cannot persist category scores: ", err)
			metrics.StoreErrors.Inc()
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
		if err := adapter.UploadSkillValues(userID, st); err != nil {
			c.Logger().Error("cannot persist skill values: ", err)
			metrics.StoreErrors.Inc()
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}

		s.publishScores(userID, scores)

		scoreResponse := map[string]interface{}{
			"message":          "screener results processed",
			"userId":           userID,
			"scores":           scores,
			"scoreServiceID":   sID,
			"scoreServiceName": sName,
		}

		return c.JSON(http.StatusOK, scoreResponse)

	}
}

//
// push the scored results onto nats for any downstream consumers.
// publishing is best effort - a failed publish never fails the
// originating webhook.
//
func (s *ScrnScoreService) publishScores(userID string, scores skill.Scores) {

	if s.nc == nil {
		return
	}

	event := map[string]interface{}{
		"userId":    userID,
		"scores":    scores,
		"serviceId": s.serviceID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	msg, err := json.Marshal(event)
	if err != nil {
		s.e.Logger.Error("cannot marshal score event: ", err)
		return
	}
	if err := s.nc.Publish(scoresSubject, msg); err != nil {
		s.e.Logger.Error("cannot publish score event: ", err)
	}

}

// plain acknowledgement for webhook-configuration probes sent as GET
func ackGetHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "Get request received"})
}

//
// echo-back endpoint: GET acknowledges, POST reflects the received
// payload so screener-tool webhook settings can be verified.
//
func buildAPITestHandler() echo.HandlerFunc {

	return func(c echo.Context) error {
		if c.Request().Method == http.MethodGet {
			return c.JSON(http.StatusOK, map[string]string{"message": "Get request received"})
		}
		var data map[string]interface{}
		if err := c.Bind(&data); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"message": "POST request received",
			"data":    data,
		})
	}
}

//
// generic json relay: POST stores a payload, GET returns the last
// stored payload. state is held on the service instance, guarded
// for concurrent requests.
//
func (s *ScrnScoreService) buildRelayHandler() echo.HandlerFunc {

	return func(c echo.Context) error {
		if c.Request().Method == http.MethodGet {
			s.relayMu.RLock()
			defer s.relayMu.RUnlock()
			if s.relay == nil {
				return c.JSON(http.StatusOK, map[string]interface{}{})
			}
			return c.JSONBlob(http.StatusOK, s.relay)
		}

		body, err := io.ReadAll(c.Request().Body)
		if err != nil || !gjson.ValidBytes(body) {
			return echo.NewHTTPError(http.StatusBadRequest, "relay payload must be json")
		}
		s.relayMu.Lock()
		s.relay = body
		s.relayMu.Unlock()

		return c.JSON(http.StatusOK, map[string]interface{}{
			"status": "success",
			"data":   json.RawMessage(body),
		})
	}
}

//
// narrative generation pass-through: forwards the numeric score to
// the external text-generation collaborator and relays the story it
// returns. no generation semantics live here.
//
func (s *ScrnScoreService) buildStoryHandler() echo.HandlerFunc {

	textgenURL := s.textgenURL

	return func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		score := gjson.GetBytes(body, "score")
		if !score.Exists() {
			return echo.NewHTTPError(http.StatusBadRequest, "score is required")
		}
		if textgenURL == "" {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "no narrative service configured")
		}

		req, err := json.Marshal(map[string]interface{}{"score": score.Value()})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		headers := map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		}
		res, err := util.Fetch("POST", textgenURL, headers, bytes.NewBuffer(req))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}

		story := gjson.GetBytes(res, "story").String()
		return c.JSON(http.StatusOK, map[string]string{"story": story})
	}
}

// deliberate failure endpoints so webhook clients can test their
// error handling against a live service

func trigger400Handler(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil || len(body) == 0 || !gjson.ValidBytes(body) {
		return echo.NewHTTPError(http.StatusBadRequest)
	}
	return c.String(http.StatusOK, "Valid request received")
}

func trigger403Handler(c echo.Context) error {
	return echo.NewHTTPError(http.StatusForbidden)
}

func trigger500Handler(c echo.Context) error {
	return errors.New("deliberate failure to exercise the 500 handler")
}

//
// render every error as the json envelope the beta clients expect:
// the message plus the url and method that produced it.
//
func errorEnvelopeHandler(err error, c echo.Context) {

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		msg = fmt.Sprintf("%v", he.Message)
	}

	c.Logger().Errorf("%d error at %s: %v", code, c.Request().URL, err)

	if c.Response().Committed {
		return
	}
	if jsonErr := c.JSON(code, map[string]interface{}{
		"error":  msg,
		"url":    c.Request().URL.String(),
		"method": c.Request().Method,
	}); jsonErr != nil {
		c.Logger().Error("cannot write error envelope: ", jsonErr)
	}

}

//
// shut the server down gracefully
//
func (s *ScrnScoreService) Shutdown() {

	if s.nc != nil {
		s.nc.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.e.Shutdown(ctx); err != nil {
		fmt.Println("could not shut down server cleanly: ", err)
		s.e.Logger.Fatal(err)
	}

}

func (s *ScrnScoreService) PrintConfig() {

	fmt.Println("\n\tScrn-Score Service Configuration")
	fmt.Printf("\t---------------------------------\n\n")

	s.printID()
	s.printStoreConfig()

}

func (s *ScrnScoreService) printID() {
	fmt.Println("\tservice name:\t\t", s.serviceName)
	fmt.Println("\tservice ID:\t\t", s.serviceID)
	fmt.Println("\tservice host:\t\t", s.serviceHost)
	fmt.Println("\tservice port:\t\t", s.servicePort)
}

func (s *ScrnScoreService) printStoreConfig() {
	fmt.Println("\tstore url:\t\t", s.storeURL)
	// display only a partial key
	keyParts := strings.Split(s.storeKey, ".")
	partialKey := keyParts[len(keyParts)-1]
	fmt.Println("\tstore key(partial):\t", partialKey)
	if s.textgenURL != "" {
		fmt.Println("\tnarrative svc url:\t", s.textgenURL)
	}
	if s.natsURL != "" {
		fmt.Println("\tnats url:\t\t", s.natsURL)
	}
}
