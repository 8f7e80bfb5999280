package kernelci

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	kcimodel "github.com/BayLibre/kernelci-backend/pkg/model"
	log "github.com/sirupsen/logrus"
)

//SendEmail sends the report to the recipients via the configured SMTP server, returning
//the send status and any errors encountered
func SendEmail(toAddrs []string, subject, txtBody string, mail kcimodel.MailConfig) (status string, errs []string) {
	status = kcimodel.StatusError

	if mail.Sender == "" || mail.Host == "" {
		log.Error("Cannot send emails: no SMTP host and/or sender specified")
		errs = append(errs, "no SMTP host and/or sender specified")
		return
	}
	if len(toAddrs) == 0 {
		log.Error("Cannot send emails: no recipients specified")
		errs = append(errs, "no recipients specified")
		return
	}

	from := mail.Sender
	if mail.SenderDesc != "" {
		from = fmt.Sprintf("%s <%s>", mail.SenderDesc, mail.Sender)
	}

	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(toAddrs, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		txtBody,
	}, "\r\n")

	var auth smtp.Auth
	if mail.User != "" && mail.Password != "" {
		auth = smtp.PlainAuth("", mail.User, mail.Password, mail.Host)
	}

	addr := fmt.Sprintf("%s:%d", mail.Host, mail.Port)
	var err error
	if mail.Port == 465 { //implicit TLS
		err = sendMailSSL(addr, mail.Host, auth, mail.Sender, toAddrs, []byte(msg))
	} else {
		err = smtp.SendMail(addr, auth, mail.Sender, toAddrs, []byte(msg))
	}
	if err != nil {
		log.Error(err)
		errs = append(errs, err.Error())
		return
	}

	status = kcimodel.StatusSent
	return
}

func sendMailSSL(addr, host string, auth smtp.Auth, from string, toAddrs []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Quit()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, addr := range toAddrs {
		if err := client.Rcpt(addr); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
