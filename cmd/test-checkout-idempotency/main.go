package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const baseURL = "http://localhost:8080"

type loginResponse struct {
	Code int `json:"code"`
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
	Msg string `json:"msg"`
}

func main() {
	fmt.Println("=== 下单幂等性测试程序 ===")

	email := fmt.Sprintf("idem-%d@test.local", time.Now().Unix())
	password := "testpass"
	productID := int64(1)

	// 1. 注册并登录
	fmt.Println("步骤1: 注册/登录用户...")
	token, err := registerAndLogin(email, password)
	if err != nil {
		fmt.Printf("❌ 登录失败: %v\n", err)
		return
	}
	fmt.Println("✅ 登录成功")

	// 2. 创建收货地址
	fmt.Println("步骤2: 创建收货地址...")
	addressID, err := createAddress(token)
	if err != nil {
		fmt.Printf("❌ 创建地址失败: %v\n", err)
		return
	}
	fmt.Printf("✅ 地址创建成功, id=%d\n", addressID)

	// 3. 携带同一个幂等键提交两次立即购买
	idemKey := uuid.NewString()
	fmt.Printf("步骤3: 使用幂等键 %s 提交第一次下单...\n", idemKey)
	status1, body1, err := buyNow(token, productID, addressID, idemKey)
	if err != nil {
		fmt.Printf("❌ 第一次下单失败: %v\n", err)
		return
	}
	fmt.Printf("✅ 第一次响应: status=%d\n", status1)

	fmt.Println("步骤4: 用同一个幂等键重复提交...")
	status2, body2, err := buyNow(token, productID, addressID, idemKey)
	if err != nil {
		fmt.Printf("❌ 第二次下单失败: %v\n", err)
		return
	}
	fmt.Printf("响应: status=%d\n", status2)

	// 4. 验证：两次响应应当完全一致，且只产生一个订单
	fmt.Println("\n=== 测试结果 ===")
	if status1 == 201 && status2 == 201 && bytes.Equal(body1, body2) {
		fmt.Println("✅ 幂等性测试通过！")
		fmt.Println("   - 两次请求状态码一致 (201)")
		fmt.Println("   - 响应体字节级一致，未创建第二个订单")
	} else {
		fmt.Println("❌ 幂等性测试失败！")
		fmt.Printf("   第一次: status=%d body=%s\n", status1, body1)
		fmt.Printf("   第二次: status=%d body=%s\n", status2, body2)
	}
}

func registerAndLogin(email, password string) (string, error) {
	reqBody := map[string]string{
		"email":      email,
		"first_name": "Idem",
		"password":   password,
	}
	jsonData, _ := json.Marshal(reqBody)
	resp, err := http.Post(baseURL+"/api/register", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	resp.Body.Close()

	loginData, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err = http.Post(baseURL+"/api/login", "application/json", bytes.NewBuffer(loginData))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.Code != 0 {
		return "", fmt.Errorf("登录失败: %s", result.Msg)
	}
	return result.Data.Token, nil
}

func createAddress(token string) (int64, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"recipient_name": "Idem Tester",
		"street":         "1 Test Street",
		"city":           "Testville",
		"state":          "TS",
		"postal_code":    "000000",
		"country":        "CN",
		"phone_number":   "13800000000",
	})
	req, _ := http.NewRequest("POST", baseURL+"/api/addresses", bytes.NewBuffer(body))
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var result struct {
		Code int `json:"code"`
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
		Msg string `json:"msg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, err
	}
	if result.Code != 0 {
		return 0, fmt.Errorf("创建地址失败: %s", result.Msg)
	}
	return result.Data.ID, nil
}

func buyNow(token string, productID, addressID int64, idemKey string) (int, []byte, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"product_id":      productID,
		"quantity":        1,
		"address_id":      addressID,
		"payment_method":  "CashOnDelivery",
		"idempotency_key": idemKey,
	})
	req, _ := http.NewRequest("POST", baseURL+"/api/checkout/buy-now", bytes.NewBuffer(body))
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, raw, nil
}
