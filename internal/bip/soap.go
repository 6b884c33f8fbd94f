// =============================================================================
// PO Reporter - ScheduleService SOAP Client
// =============================================================================
//
// SOAP implementation of the Service interface against the BI Publisher v2
// ScheduleService endpoint. The handful of envelopes this client sends are
// fixed, so they are built from templates here rather than generated from the
// WSDL; responses are decoded with encoding/xml.
//
// Authentication is a WSSE username token in the SOAP header plus the
// userID/password pair the v2 operations also require in the body.
//
// =============================================================================

package bip

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	scheduleServicePath = "/xmlpserver/services/v2/ScheduleService"

	envelopeOpen  = `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:v2="http://xmlns.oracle.com/oxp/service/v2">`
	envelopeClose = `</soapenv:Envelope>`
)

// SOAPClient talks to a BI Publisher ScheduleService endpoint.
type SOAPClient struct {
	// BaseURL is the server root, e.g. "https://host.example.com".
	BaseURL string

	// ReportPath is the absolute catalog path of the report definition,
	// e.g. "/Custom/Procurement/Purchasing/PO Report/PO_RECP_INV_V8.xdo".
	ReportPath string

	// Username and Password authenticate against the service.
	Username string
	Password string

	// HTTPClient is the underlying HTTP client. A default with a generous
	// timeout is used when nil; report scheduling calls can be slow.
	HTTPClient *http.Client
}

// NewSOAPClient creates a client for the given server root and report path.
func NewSOAPClient(baseURL, reportPath, username, password string) *SOAPClient {
	return &SOAPClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ReportPath: reportPath,
		Username:   username,
		Password:   password,
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// SubmitJob schedules the report with the request's parameters and returns
// the job id from the scheduleReport response.
func (c *SOAPClient) SubmitJob(ctx context.Context, req ReportRequest) (string, error) {
	jobName := req.UserJobName
	if jobName == "" {
		jobName = "PO_Report_" + time.Now().Format("20060102_150405")
	}

	var params strings.Builder
	for _, p := range [][2]string{
		{"p_business_group", req.BusinessUnit},
		{"p_po_number", req.PONumber},
		{"p_From_date", req.FromDate},
		{"p_To_date", req.ToDate},
	} {
		fmt.Fprintf(&params,
			`<v2:item><v2:name>%s</v2:name><v2:values><v2:item>%s</v2:item></v2:values><v2:dataType>xsd:string</v2:dataType><v2:multiValuesAllowed>false</v2:multiValuesAllowed></v2:item>`,
			xmlEscape(p[0]), xmlEscape(p[1]))
	}

	body := fmt.Sprintf(`<v2:scheduleReport>
  <v2:scheduleRequest>
    <v2:reportRequest>
      <v2:reportAbsolutePath>%s</v2:reportAbsolutePath>
      <v2:sizeOfDataChunkDownload>-1</v2:sizeOfDataChunkDownload>
      <v2:attributeFormat>excel</v2:attributeFormat>
      <v2:attributeLocale>en-US</v2:attributeLocale>
      <v2:byPassCache>true</v2:byPassCache>
      <v2:flattenXML>false</v2:flattenXML>
      <v2:parameterNameValues><v2:listOfParamNameValues>%s</v2:listOfParamNameValues></v2:parameterNameValues>
    </v2:reportRequest>
    <v2:saveOutputOption>true</v2:saveOutputOption>
    <v2:schedulePublicOption>true</v2:schedulePublicOption>
    <v2:useUTF8Option>true</v2:useUTF8Option>
    <v2:jobLocale>en-US</v2:jobLocale>
    <v2:jobTZ>UTC</v2:jobTZ>
    <v2:userJobName>%s</v2:userJobName>
  </v2:scheduleRequest>
  <v2:userID>%s</v2:userID>
  <v2:password>%s</v2:password>
</v2:scheduleReport>`,
		xmlEscape(c.ReportPath), params.String(), xmlEscape(jobName),
		xmlEscape(c.Username), xmlEscape(c.Password))

	raw, err := c.call(ctx, body)
	if err != nil {
		return "", err
	}

	var resp struct {
		JobID string `xml:"Body>scheduleReportResponse>scheduleReportReturn"`
	}
	if err := xml.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode scheduleReport response: %w", err)
	}
	return strings.TrimSpace(resp.JobID), nil
}

// JobStatus returns the state of a scheduled job.
func (c *SOAPClient) JobStatus(ctx context.Context, jobID string) (JobState, error) {
	body := fmt.Sprintf(`<v2:getScheduledReportStatus>
  <v2:scheduledJobID>%s</v2:scheduledJobID>
  <v2:userID>%s</v2:userID>
  <v2:password>%s</v2:password>
</v2:getScheduledReportStatus>`,
		xmlEscape(jobID), xmlEscape(c.Username), xmlEscape(c.Password))

	raw, err := c.call(ctx, body)
	if err != nil {
		return StateUnknown, err
	}

	var resp struct {
		Status string `xml:"Body>getScheduledReportStatusResponse>getScheduledReportStatusReturn>jobStatus"`
	}
	if err := xml.Unmarshal(raw, &resp); err != nil {
		return StateUnknown, fmt.Errorf("decode getScheduledReportStatus response: %w", err)
	}
	return ParseJobState(resp.Status), nil
}

// JobInstances returns the instance ids the service associates with a job.
func (c *SOAPClient) JobInstances(ctx context.Context, jobID string) ([]string, error) {
	body := fmt.Sprintf(`<v2:getAllJobInstanceIDs>
  <v2:submittedJobId>%s</v2:submittedJobId>
  <v2:userID>%s</v2:userID>
  <v2:password>%s</v2:password>
</v2:getAllJobInstanceIDs>`,
		xmlEscape(jobID), xmlEscape(c.Username), xmlEscape(c.Password))

	raw, err := c.call(ctx, body)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Items []string `xml:"Body>getAllJobInstanceIDsResponse>getAllJobInstanceIDsReturn>item"`
	}
	if err := xml.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode getAllJobInstanceIDs response: %w", err)
	}

	var ids []string
	for _, it := range resp.Items {
		if s := strings.TrimSpace(it); s != "" {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

// JobOutputs returns the output descriptors of a job instance.
func (c *SOAPClient) JobOutputs(ctx context.Context, instanceID string) ([]Output, error) {
	body := fmt.Sprintf(`<v2:getScheduledReportOutputInfo>
  <v2:jobInstanceID>%s</v2:jobInstanceID>
  <v2:userID>%s</v2:userID>
  <v2:password>%s</v2:password>
</v2:getScheduledReportOutputInfo>`,
		xmlEscape(instanceID), xmlEscape(c.Username), xmlEscape(c.Password))

	raw, err := c.call(ctx, body)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Items []struct {
			OutputID    string `xml:"jobOutputId"`
			AltOutputID string `xml:"outputId"`
			Name        string `xml:"outputName"`
			ContentType string `xml:"contentType"`
		} `xml:"Body>getScheduledReportOutputInfoResponse>getScheduledReportOutputInfoReturn>item"`
	}
	if err := xml.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode getScheduledReportOutputInfo response: %w", err)
	}

	var outputs []Output
	for _, it := range resp.Items {
		id := strings.TrimSpace(it.OutputID)
		if id == "" {
			id = strings.TrimSpace(it.AltOutputID)
		}
		outputs = append(outputs, Output{
			ID:          id,
			Name:        strings.TrimSpace(it.Name),
			ContentType: strings.TrimSpace(it.ContentType),
		})
	}
	return outputs, nil
}

// FetchDocument returns the content of one output. The service delivers the
// document body base64-encoded inside the XML response.
func (c *SOAPClient) FetchDocument(ctx context.Context, outputID string) (*Document, error) {
	body := fmt.Sprintf(`<v2:getDocumentData>
  <v2:jobOutputID>%s</v2:jobOutputID>
  <v2:userID>%s</v2:userID>
  <v2:password>%s</v2:password>
</v2:getDocumentData>`,
		xmlEscape(outputID), xmlEscape(c.Username), xmlEscape(c.Password))

	raw, err := c.call(ctx, body)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data string `xml:"Body>getDocumentDataResponse>getDocumentDataReturn"`
	}
	if err := xml.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode getDocumentData response: %w", err)
	}
	return &Document{Base64: strings.TrimSpace(resp.Data)}, nil
}

// call posts one SOAP body to the ScheduleService endpoint and returns the
// raw response envelope.
func (c *SOAPClient) call(ctx context.Context, body string) ([]byte, error) {
	envelope := envelopeOpen + c.wsseHeader() + "<soapenv:Body>" + body + "</soapenv:Body>" + envelopeClose

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+scheduleServicePath, bytes.NewReader([]byte(envelope)))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "")

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call schedule service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read schedule service response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if fault := faultString(raw); fault != "" {
			return nil, fmt.Errorf("schedule service fault: %s", fault)
		}
		return nil, fmt.Errorf("schedule service returned HTTP %d", resp.StatusCode)
	}
	return raw, nil
}

// wsseHeader builds the WS-Security username token header.
func (c *SOAPClient) wsseHeader() string {
	return fmt.Sprintf(`<soapenv:Header><wsse:Security xmlns:wsse="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"><wsse:UsernameToken><wsse:Username>%s</wsse:Username><wsse:Password>%s</wsse:Password></wsse:UsernameToken></wsse:Security></soapenv:Header>`,
		xmlEscape(c.Username), xmlEscape(c.Password))
}

// faultString extracts the faultstring from a SOAP fault envelope, if any.
func faultString(raw []byte) string {
	var fault struct {
		Text string `xml:"Body>Fault>faultstring"`
	}
	if err := xml.Unmarshal(raw, &fault); err != nil {
		return ""
	}
	return strings.TrimSpace(fault.Text)
}

// xmlEscape escapes a value for inclusion in XML text content.
func xmlEscape(s string) string {
	var buf bytes.Buffer
	// EscapeText only errors on a failing writer; bytes.Buffer never fails.
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
