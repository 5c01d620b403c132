package panel

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// ShareLinks содержит три кодировки одной клиентской учётки.
type ShareLinks struct {
	VLESS  string
	VMess  string
	Trojan string
}

// vmessDocument описывает JSON-документ ссылки vmess до кодирования в base64.
type vmessDocument struct {
	V    string `json:"v"`
	PS   string `json:"ps"`
	Add  string `json:"add"`
	Port string `json:"port"`
	ID   string `json:"id"`
	Aid  string `json:"aid"`
	Net  string `json:"net"`
	Type string `json:"type"`
	Host string `json:"host"`
	Path string `json:"path"`
	TLS  string `json:"tls"`
}

// DeriveShareLinks детерминированно строит ссылки подключения
// из хоста панели, идентификатора клиента и метки. Сетевых вызовов нет.
func DeriveShareLinks(label, clientID, domain string) ShareLinks {
	return ShareLinks{
		VLESS: fmt.Sprintf(
			"vless://%s@%s:443?path=%%2F&security=tls&encryption=none&type=ws&host=%s&sni=%s#%s",
			clientID, domain, domain, domain, label),
		VMess: "vmess://" + encodeVMess(label, clientID, domain),
		Trojan: fmt.Sprintf(
			"trojan://%s@%s:443?security=tls&type=ws&host=%s#%s",
			clientID, domain, domain, label),
	}
}

func encodeVMess(label, clientID, domain string) string {
	doc := vmessDocument{
		V:    "2",
		PS:   label,
		Add:  domain,
		Port: "443",
		ID:   clientID,
		Aid:  "0",
		Net:  "ws",
		Type: "none",
		Host: domain,
		Path: "/",
		TLS:  "tls",
	}
	data, _ := json.Marshal(doc)
	return base64.StdEncoding.EncodeToString(data)
}
