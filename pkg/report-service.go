package kernelci

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	kcimodel "github.com/BayLibre/kernelci-backend/pkg/model"
	"github.com/BayLibre/kernelci-backend/pkg/reports/plaintext"
	"github.com/carlescere/scheduler"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"
)

var (
	//KernelCIConfigPath is the default config path of the KernelCI report service
	KernelCIConfigPath = filepath.Join("data", "config", "KernelCIConfig.yml")
	routes             = mux.NewRouter()
)

func init() {
	AddReportRoutes(routes)
}

//AddReportRoutes adds the report service's routes to an existing router setup
func AddReportRoutes(r *mux.Router) {
	r.HandleFunc("/test", ingestTestResults).Methods("POST")
	r.HandleFunc("/send", scheduleSend).Methods("POST")
	r.HandleFunc("/stream", RealtimeTestResults).Methods("GET")
	r.HandleFunc("/listreports/{rewind}", getReportRequests).Methods("GET")
	r.HandleFunc("/listsent/{rewind}", getReportRecords).Methods("GET")
	r.HandleFunc("/getreportdata/{date}/{reportID}", getReportData).Methods("GET")
	r.HandleFunc("/getreporttext/{date}/{reportID}", getReportText).Methods("GET")
	r.HandleFunc("/getreportchart/{date}/{reportID}", getReportChart).Methods("GET")
}

//Service main service entry function
func Service(configPath string) {
	log.Info("Running KernelCI report service ...")
	KernelCIConfigPath = configPath
	ScheduleReports()
	if config, err := loadKernelCIConfig(configPath); err == nil {
		ServeAPI(config.ServicePort)
	}
}

//ServeAPI provides an API endpoint for interacting with the report service on the localhost
func ServeAPI(port int) {
	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins([]string{"http://localhost:4200",
			fmt.Sprintf("http://localhost:%d", port)}),
		handlers.AllowedMethods([]string{"GET", "HEAD", "POST"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "Accept",
			"Accept-Language", "Origin"}),
		handlers.AllowCredentials(),
	}
	hostPort := fmt.Sprintf(":%d", port)
	if certFile, keyFile, err := genCerts(); err == nil {
		log.Error(http.ListenAndServeTLS(hostPort, certFile, keyFile, handlers.CORS(corsOptions...)(routes)))
	} else {
		log.Error(err)
		log.Error(http.ListenAndServe(hostPort, handlers.CORS(corsOptions...)(routes)))
	}
}

func ingestTestResults(w http.ResponseWriter, req *http.Request) {
	var ctx kcimodel.ReportContext
	if err := json.NewDecoder(req.Body).Decode(&ctx); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now()
	suiteNames := []string{}
	for i := range ctx.TestSuites {
		suite := &ctx.TestSuites[i]
		if suite.TotalTests == 0 && len(suite.TestCases) > 0 {
			suite.CountResults()
		}
		if suite.CreatedOn.IsZero() {
			suite.CreatedOn = now
		}
		suiteNames = append(suiteNames, suite.Name)
	}

	prr := kcimodel.PersistedReportRequest{
		Request: kcimodel.ReportRequest{
			Tree:     ctx.Tree,
			Kernel:   ctx.Kernel,
			Day:      now.Format(dayFormat),
			ReportID: GetNextReportID(),
		},
		Suites:  suiteNames,
		Created: now,
	}
	//the suites are stored under their own keys, the request only keeps the metadata
	suites := ctx.TestSuites
	ctx.TestSuites = nil
	prr.Context = ctx
	PersistReportRequest(prr)

	for i, suite := range suites {
		PersistTestSuites(prr, suite.Name, []kcimodel.TestSuite{suite})
		prr.Progress = i + 1
		PersistReportRequest(prr)
	}

	CompactDB(prr.Request.Day, prr.Request.ReportID)
	log.Infof("Stored %d test suites for '%s-%s'", len(suites), prr.Request.Tree, prr.Request.Kernel)
	json.NewEncoder(w).Encode(prr.Request)
}

//sendRequest is the payload of the /send endpoint
type sendRequest struct {
	Tree       string
	Kernel     string
	LabName    string
	Delay      *int
	Recipients []string
}

func scheduleSend(w http.ResponseWriter, req *http.Request) {
	var request sendRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	config, err := loadKernelCIConfig(KernelCIConfigPath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	countdown := config.SendDelay
	if request.Delay != nil {
		countdown = *request.Delay
	}
	if countdown < 0 {
		countdown = -countdown
	}

	recipients := request.Recipients
	if len(recipients) == 0 {
		recipients = config.Recipients
	}

	when := time.Now().UTC().Add(time.Duration(countdown) * time.Second)
	time.AfterFunc(time.Duration(countdown)*time.Second, func() {
		sendTestReport(request.Tree, request.Kernel, request.LabName, recipients, config)
	})

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"reason": fmt.Sprintf("Email report scheduled to be sent at '%s' UTC", when.Format(time.RFC3339)),
	})
}

func getReportRequests(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	rewind := 365
	if rew, err := strconv.Atoi(vars["rewind"]); err == nil {
		rewind = rew
	}
	json.NewEncoder(w).Encode(ListReports(rewind))
}

func getReportRecords(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	rewind := 365
	if rew, err := strconv.Atoi(vars["rewind"]); err == nil {
		rewind = rew
	}
	json.NewEncoder(w).Encode(ListReportRecords(rewind))
}

func getReportData(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	ctx, err := LoadReportContext(vars["date"], vars["reportID"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(ctx)
}

func getReportText(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	ctx, err := LoadReportContext(vars["date"], vars["reportID"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	report, err := plaintext.Render(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(report))
}

func getReportChart(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	ctx, err := LoadReportContext(vars["date"], vars["reportID"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	svg, err := plaintext.ResultsChart(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(svg))
}

//ScheduleReports schedules the periodic report emails
func ScheduleReports() {
	reportJob := func() {
		sendScheduledReports()
	}

	if config, err := loadKernelCIConfig(KernelCIConfigPath); err == nil {
		for _, t := range config.DailySchedules {
			if config.IsProduction {
				log.Info("Sending reports daily at ", t)
				scheduler.Every().Day().At(t).Run(reportJob)
			} else {
				scheduler.Every(2).Hours().Run(reportJob)
			}
		}
	}
}

//sendScheduledReports emails the reports stored today that have not been sent yet
func sendScheduledReports() {
	config, err := loadKernelCIConfig(KernelCIConfigPath)
	if err != nil {
		return
	}

	sent := make(map[string]bool)
	for _, record := range ListReportRecords(0) {
		if record.Status == kcimodel.StatusSent {
			sent[record.Name] = true
		}
	}

	for _, request := range ListReports(0) {
		name := fmt.Sprintf("%s-%s", request.Tree, request.Kernel)
		if sent[name] {
			continue
		}
		sendTestReport(request.Tree, request.Kernel, request.LabName, config.Recipients, config)
		sent[name] = true
	}
}

//sendTestReport renders the latest stored report for the tree and kernel, emails it and
//records the outcome
func sendTestReport(tree, kernel, labName string, recipients []string, config kcimodel.KernelCIConfig) {
	log.Infof("Preparing test report email for '%s-%s'", tree, kernel)

	request, err := findReportRequest(tree, kernel, 365)
	if err != nil {
		log.Error(err)
		return
	}

	ctx, err := LoadReportContext(request.Day, request.ReportID)
	if err != nil {
		log.Error(err)
		return
	}
	if labName != "" {
		ctx.TestSuites = filterSuitesByLab(ctx.TestSuites, labName)
	}

	body, err := plaintext.Email(ctx, labName, config.Mail.InfoEmail)
	if err != nil {
		log.Error(err)
		return
	}
	subject := plaintext.Subject(ctx, labName)

	log.Infof("Sending test report email for '%s-%s'", tree, kernel)
	status, sendErrors := SendEmail(recipients, subject, body, config.Mail)
	PersistReportRecord(kcimodel.NewReportRecord(
		tree, kernel, kcimodel.TestReportType, status, sendErrors))
}

//findReportRequest returns the most recent stored report request for the tree and kernel
func findReportRequest(tree, kernel string, rewindDays int) (found kcimodel.ReportRequest, e error) {
	ok := false
	for _, request := range ListReports(rewindDays) {
		if request.Tree == tree && request.Kernel == kernel {
			found = request
			ok = true
		}
	}
	if !ok {
		return found, fmt.Errorf("no stored results for %s-%s", tree, kernel)
	}
	return found, nil
}

func filterSuitesByLab(suites []kcimodel.TestSuite, labName string) (filtered []kcimodel.TestSuite) {
	for _, s := range suites {
		if s.LabName == labName {
			filtered = append(filtered, s)
		}
	}
	return
}

func loadKernelCIConfig(path string) (config kcimodel.KernelCIConfig, e error) {
	configFile, err := ioutil.ReadFile(path)
	if err != nil {
		log.Error(err)
		return config, err
	}
	err = yaml.Unmarshal(configFile, &config)
	if err != nil {
		log.Error(err)
		return config, err
	}
	return
}
