package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"shop_admin_v1_202610/internal/api/dto"
	"shop_admin_v1_202610/internal/model"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// EmailKind 邮件类型
type EmailKind string

const (
	EmailOrderConfirmation  EmailKind = "order-confirmation"
	EmailOrderCancellation  EmailKind = "order-cancellation"
	EmailVendorNotification EmailKind = "vendor-notification"
	EmailRefund             EmailKind = "refund"
)

// ErrMailNotConfigured 未配置 SMTP
var ErrMailNotConfigured = errors.New("邮件服务未配置")

// MailSender 发送邮件，*gomail.Dialer 实现了该接口
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSettings 发件配置
type SMTPSettings struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
}

// NewSMTPSender 按配置创建 gomail Dialer，Host 为空时返回 nil
func NewSMTPSender(cfg SMTPSettings) MailSender {
	if cfg.Host == "" {
		return nil
	}
	return gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
}

// ==================== 模板 ====================

type emailTemplate struct {
	subject string
	body    *template.Template
}

type emailData struct {
	Order        *model.Order
	Reason       string
	RefundAmount float64
	VendorName   string
}

const itemsTable = `<table>{{range .Order.Items}}<tr><td>{{.Name}}</td><td>x{{.Quantity}}</td><td>{{printf "%.2f" .Price}}</td></tr>{{end}}</table>`

var emailTemplates = map[EmailKind]emailTemplate{
	EmailOrderConfirmation: {
		subject: "订单确认 #%s",
		body: template.Must(template.New("confirmation").Parse(
			`<p>{{.Order.CustomerName}}，您好：</p><p>您的订单 #{{.Order.OrderNumber}} 已确认。</p>` + itemsTable +
				`<p>合计：{{printf "%.2f" .Order.Total}}</p>`)),
	},
	EmailOrderCancellation: {
		subject: "订单已取消 #%s",
		body: template.Must(template.New("cancellation").Parse(
			`<p>{{.Order.CustomerName}}，您好：</p><p>您的订单 #{{.Order.OrderNumber}} 已取消。</p>{{if .Reason}}<p>原因：{{.Reason}}</p>{{end}}`)),
	},
	EmailVendorNotification: {
		subject: "新订单通知 #%s",
		body: template.Must(template.New("vendor").Parse(
			`<p>{{if .VendorName}}{{.VendorName}}，{{end}}您有新的订单 #{{.Order.OrderNumber}}。</p>` + itemsTable)),
	},
	EmailRefund: {
		subject: "退款通知 #%s",
		body: template.Must(template.New("refund").Parse(
			`<p>{{.Order.CustomerName}}，您好：</p><p>订单 #{{.Order.OrderNumber}} 已退款 {{printf "%.2f" .RefundAmount}}。</p>{{if .Reason}}<p>原因：{{.Reason}}</p>{{end}}`)),
	},
}

// IsEmailKind 是否为支持的邮件类型
func IsEmailKind(kind string) bool {
	_, ok := emailTemplates[EmailKind(kind)]
	return ok
}

// ==================== EmailService ====================

// EmailService 订单相关的事务邮件
type EmailService struct {
	sender MailSender
	from   string
	logger *zap.Logger
}

// NewEmailService sender 为 nil 时所有发送都返回未配置
func NewEmailService(cfg SMTPSettings, sender MailSender, logger *zap.Logger) *EmailService {
	if logger == nil {
		logger = zap.NewNop()
	}
	from := cfg.FromEmail
	if from == "" {
		from = cfg.Username
	}
	if cfg.FromName != "" && from != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, from)
	}
	return &EmailService{sender: sender, from: from, logger: logger}
}

// Send 渲染并发送邮件，失败信息以结构化结果返回
func (s *EmailService) Send(ctx context.Context, kind EmailKind, req *dto.EmailReq) *dto.EmailResp {
	if err := s.send(ctx, kind, req); err != nil {
		s.logger.Warn("[Email] 发送失败",
			zap.String("kind", string(kind)),
			zap.String("to", req.To),
			zap.Error(err))
		return &dto.EmailResp{
			Success:         false,
			Error:           err.Error(),
			Troubleshooting: Troubleshoot(err),
		}
	}
	s.logger.Info("[Email] 发送成功", zap.String("kind", string(kind)), zap.String("to", req.To))
	return &dto.EmailResp{Success: true, Message: "邮件已发送"}
}

// NotifyOrderStatus 订单变为已取消/已退款时通知客户，其他状态不发送
func (s *EmailService) NotifyOrderStatus(ctx context.Context, order *model.Order, status, reason string) error {
	var kind EmailKind
	switch status {
	case model.OrderStatusCancelled:
		kind = EmailOrderCancellation
	case model.OrderStatusRefunded:
		kind = EmailRefund
	default:
		return nil
	}
	return s.send(ctx, kind, &dto.EmailReq{
		To:           order.CustomerEmail,
		Order:        order,
		Reason:       reason,
		RefundAmount: order.Total,
	})
}

func (s *EmailService) send(ctx context.Context, kind EmailKind, req *dto.EmailReq) error {
	tpl, ok := emailTemplates[kind]
	if !ok {
		return fmt.Errorf("不支持的邮件类型: %s", kind)
	}
	if req == nil || req.Order == nil {
		return errors.New("缺少订单信息")
	}
	if strings.TrimSpace(req.To) == "" {
		return errors.New("收件人不能为空")
	}
	if s.sender == nil {
		return ErrMailNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	err := tpl.body.Execute(&body, emailData{
		Order:        req.Order,
		Reason:       req.Reason,
		RefundAmount: req.RefundAmount,
		VendorName:   req.VendorName,
	})
	if err != nil {
		return fmt.Errorf("渲染邮件失败: %w", err)
	}

	number := req.Order.OrderNumber
	if number == "" {
		number = req.Order.ID
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", req.To)
	msg.SetHeader("Subject", fmt.Sprintf(tpl.subject, number))
	msg.SetBody("text/html", body.String())

	return s.sender.DialAndSend(msg)
}

// ==================== 错误排查 ====================

var troubleshootingHints = []struct {
	keys []string
	hint string
}{
	{[]string{"econnreset", "connection reset"}, "SMTP 服务器重置了连接，请确认端口与加密方式匹配（465 使用 SSL，587 使用 STARTTLS）"},
	{[]string{"enotfound", "no such host"}, "无法解析 SMTP 主机名，请检查 SMTP_HOST 配置和 DNS"},
	{[]string{"etimedout", "timeout", "timed out"}, "连接 SMTP 服务器超时，请检查网络、防火墙或端口是否被封禁"},
	{[]string{"eauth", "535", "authentication", "username and password"}, "SMTP 认证失败，请检查用户名和密码，部分邮箱需要使用应用专用密码"},
	{[]string{"certificate", "x509"}, "TLS 证书校验失败，请确认 SMTP_HOST 与证书域名一致"},
	{[]string{"connection refused", "econnrefused"}, "SMTP 端口拒绝连接，请确认服务器地址和端口"},
}

// Troubleshoot 按错误信息中的关键字给出排查建议
func Troubleshoot(err error) []string {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrMailNotConfigured) {
		return []string{"请配置 SMTP_HOST、SMTP_USERNAME、SMTP_PASSWORD 后重启服务"}
	}
	msg := strings.ToLower(err.Error())
	var hints []string
	for _, h := range troubleshootingHints {
		for _, k := range h.keys {
			if strings.Contains(msg, k) {
				hints = append(hints, h.hint)
				break
			}
		}
	}
	if len(hints) == 0 {
		hints = append(hints, "请检查 SMTP 配置和服务器日志")
	}
	return hints
}
