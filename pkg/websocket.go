package kernelci

import (
	"net/http"

	kcimodel "github.com/BayLibre/kernelci-backend/pkg/model"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

var (
	allowedOrigins = []string{
		"localhost:12345",
	}

	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			for _, origin := range allowedOrigins {
				if origin == r.Host {
					return true
				}
			}
			return false
		},
	}
)

//RealtimeTestResults streams the stored test suites of a report over a websocket.
//The client sends a ReportRequest identifying the report it wants replayed
func RealtimeTestResults(w http.ResponseWriter, req *http.Request) {
	if conn, err := upgrader.Upgrade(w, req, nil); err == nil {
		go func() {
			defer conn.Close()
			var request kcimodel.ReportRequest
			if err := conn.ReadJSON(&request); err != nil {
				log.Error(err)
				return
			}

			prr, err := LoadReportRequest(request.Day, request.ReportID)
			if err != nil {
				log.Error(err)
				return
			}
			total := len(prr.Suites)

			streamExistingReport(prr, func(progress int, suites []kcimodel.TestSuite, narrative string) {
				out := kcimodel.ReportProgress{
					ReportID:   prr.Request.ReportID,
					Progress:   100 * float32(progress) / float32(total),
					TestSuites: suites,
					Narrative:  narrative,
				}
				conn.WriteJSON(out)
			})
		}()
	} else {
		log.Error(err)
	}
}
