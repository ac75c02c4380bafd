package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/leafo/showlights/arrangement"
	"github.com/leafo/showlights/config"
	"github.com/leafo/showlights/generate"
	"github.com/leafo/showlights/showlight"
)

const maxRequestSize = 32 << 20

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Address to listen on")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve showlight generation over HTTP",
	Long: `Starts an HTTP server:

  POST /generate  generate showlights for the posted arrangement XML
  GET  /methods   list the generation method names`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Printf("Listening on %s", serveAddr)
		return http.ListenAndServe(serveAddr, newRouter())
	},
}

func newRouter() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/generate", handleGenerate).Methods("POST")
	router.HandleFunc("/methods", handleMethods).Methods("GET")
	return cors.Default().Handler(router)
}

type showlightJSON struct {
	Time int `json:"time"` // milliseconds
	Note int `json:"note"`
}

type generateRequest struct {
	Arrangement     string          `json:"arrangement"`
	BeamArrangement string          `json:"beam_arrangement,omitempty"`
	Preferences     string          `json:"preferences,omitempty"` // YAML preferences document
	Seed            *uint64         `json:"seed,omitempty"`
	Existing        []showlightJSON `json:"existing,omitempty"`
}

type generateResponse struct {
	RequestID  string          `json:"request_id"`
	Showlights []showlightJSON `json:"showlights"`
}

type methodsResponse struct {
	Fog  []string `json:"fog"`
	Beam []string `json:"beam"`
}

// memorySource serves arrangements posted with a request
type memorySource map[string]*arrangement.Arrangement

func (m memorySource) Version(id string) (time.Time, error) {
	if _, ok := m[id]; !ok {
		return time.Time{}, fmt.Errorf("no arrangement %s", id)
	}
	return time.Time{}, nil
}

func (m memorySource) Load(id string) (*arrangement.Arrangement, error) {
	arr, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("no arrangement %s", id)
	}
	return arr, nil
}

func handleMethods(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(methodsResponse{
		Fog:  generate.FogMethodNames(),
		Beam: generate.BeamMethodNames(),
	})
}

func handleGenerate(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	w.Header().Set("X-Request-ID", requestID)

	var input generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize)).Decode(&input); err != nil {
		http.Error(w, "Could not decode request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	showlights, err := generateForRequest(requestID, input)
	if err != nil {
		log.Printf("Request %s failed: %v", requestID, err)
		status := http.StatusUnprocessableEntity
		if errors.Is(err, errBadRequest) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "xml") {
		w.Header().Set("Content-Type", "application/xml")
		if err := showlight.Write(w, showlights); err != nil {
			log.Printf("Request %s: error writing response: %v", requestID, err)
		}
		return
	}

	res := generateResponse{RequestID: requestID, Showlights: make([]showlightJSON, 0, len(showlights))}
	for _, sl := range showlights {
		res.Showlights = append(res.Showlights, showlightJSON{Time: sl.Time, Note: sl.Note})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

var errBadRequest = errors.New("bad request")

func generateForRequest(requestID string, input generateRequest) ([]showlight.Showlight, error) {
	if strings.TrimSpace(input.Arrangement) == "" {
		return nil, fmt.Errorf("%w: missing arrangement", errBadRequest)
	}

	opts := generate.DefaultOptions()
	if input.Preferences != "" {
		prefs, err := config.Decode(strings.NewReader(input.Preferences))
		if err != nil {
			return nil, fmt.Errorf("%w: preferences: %v", errBadRequest, err)
		}
		opts = prefs.Options()
	}

	source := memorySource{}
	fogID := requestID + "/fog"
	arr, err := arrangement.Decode(strings.NewReader(input.Arrangement))
	if err != nil {
		return nil, fmt.Errorf("%w: arrangement: %v", errBadRequest, err)
	}
	source[fogID] = arr

	beamID := ""
	if input.BeamArrangement != "" {
		beamID = requestID + "/beam"
		arr, err := arrangement.Decode(strings.NewReader(input.BeamArrangement))
		if err != nil {
			return nil, fmt.Errorf("%w: beam arrangement: %v", errBadRequest, err)
		}
		source[beamID] = arr
	}

	var r generate.Rand = generate.DefaultRand
	if input.Seed != nil {
		r = generate.NewRand(*input.Seed)
	}

	initial := make([]showlight.Showlight, 0, len(input.Existing))
	for _, sl := range input.Existing {
		initial = append(initial, showlight.Showlight{Time: sl.Time, Note: sl.Note})
	}

	cache := arrangement.NewCache(source, nil)
	cache.Verbose = verbose
	gen := generate.NewGenerator(cache, fogID, beamID, opts, r)
	return gen.Generate(initial)
}
