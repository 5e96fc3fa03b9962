package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	baseURL    = "http://localhost:8080"
	adminURL   = "http://localhost:8081"
	adminToken = "miorish-admin"
)

type testResult struct {
	Name    string
	Passed  bool
	Message string
}

var results []testResult

func record(name string, passed bool, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	status := "✅"
	if !passed {
		status = "❌"
	}
	fmt.Printf("%s %s: %s\n\n", status, name, msg)
	results = append(results, testResult{Name: name, Passed: passed, Message: msg})
}

func main() {
	fmt.Println("==========================================")
	fmt.Println("    库存争抢 / 事务原子性测试程序")
	fmt.Println("==========================================")
	fmt.Println()

	// 准备阶段：商品（库存 5）+ 两个用户各一个地址
	fmt.Println("【准备阶段】创建测试商品（库存 5）...")
	productID, err := createProduct(5)
	if err != nil {
		fmt.Printf("❌ 创建商品失败: %v\n", err)
		return
	}
	fmt.Printf("✅ 商品创建成功, id=%d\n\n", productID)

	suffix := time.Now().UnixNano()
	tokenA, addrA, err := prepareUser(fmt.Sprintf("contend-a-%d@test.local", suffix))
	if err != nil {
		fmt.Printf("❌ 准备用户 A 失败: %v\n", err)
		return
	}
	tokenB, addrB, err := prepareUser(fmt.Sprintf("contend-b-%d@test.local", suffix))
	if err != nil {
		fmt.Printf("❌ 准备用户 B 失败: %v\n", err)
		return
	}
	fmt.Println("✅ 两个测试用户准备完成")
	fmt.Println()

	testConcurrentOversell(tokenA, addrA, tokenB, addrB, productID)
	testFailedCheckoutLeavesNoTrace(tokenB, addrB, productID)
	testSelectedItemsRemovesOnlyChosenRows(tokenA, addrA, productID)

	printReport()
}

// 场景：库存 5，两个用户同时各买 3 件。
// 期望：恰好一单成功、一单因库存不足被拒，剩余库存 2，绝不超卖。
func testConcurrentOversell(tokenA string, addrA int64, tokenB string, addrB int64, productID int64) {
	const name = "并发争抢不超卖"

	type outcome struct {
		status int
		body   []byte
		err    error
	}
	var wg sync.WaitGroup
	outcomes := make([]outcome, 2)
	start := make(chan struct{})

	launch := func(i int, token string, addressID int64) {
		defer wg.Done()
		<-start
		status, body, err := buyNow(token, productID, 3, addressID)
		outcomes[i] = outcome{status: status, body: body, err: err}
	}
	wg.Add(2)
	go launch(0, tokenA, addrA)
	go launch(1, tokenB, addrB)
	close(start)
	wg.Wait()

	for i, o := range outcomes {
		if o.err != nil {
			record(name, false, "请求 %d 失败: %v", i, o.err)
			return
		}
	}

	succeeded, rejected := 0, 0
	for _, o := range outcomes {
		switch o.status {
		case 201:
			succeeded++
		case 400:
			rejected++
		}
	}
	if succeeded != 1 || rejected != 1 {
		record(name, false, "期望恰好一成功一拒绝, 实际: %d / %d (状态码 %d, %d)",
			succeeded, rejected, outcomes[0].status, outcomes[1].status)
		return
	}

	stock, err := getStock(tokenA, productID)
	if err != nil {
		record(name, false, "查询库存失败: %v", err)
		return
	}
	if stock != 2 {
		record(name, false, "剩余库存 = %d, 期望 2", stock)
		return
	}
	record(name, true, "一单成功一单被拒，剩余库存 2")
}

// 场景：下单失败（库存不足）必须不留下任何持久化痕迹：
// 库存不变、订单数不变。
func testFailedCheckoutLeavesNoTrace(token string, addressID, productID int64) {
	const name = "失败下单零残留"

	stockBefore, err := getStock(token, productID)
	if err != nil {
		record(name, false, "查询库存失败: %v", err)
		return
	}
	ordersBefore, err := countOrders(token)
	if err != nil {
		record(name, false, "查询订单失败: %v", err)
		return
	}

	// 请求量大于剩余库存，事务必须整体回滚
	status, body, err := buyNow(token, productID, stockBefore+1, addressID)
	if err != nil {
		record(name, false, "请求失败: %v", err)
		return
	}
	if status != 400 {
		record(name, false, "状态码 = %d, 期望 400, body=%s", status, body)
		return
	}
	var rejection struct {
		Shortages []struct {
			ProductID int64 `json:"product_id"`
			Requested int64 `json:"requested"`
			Available int64 `json:"available"`
		} `json:"shortages"`
	}
	if err := json.Unmarshal(body, &rejection); err != nil || len(rejection.Shortages) == 0 {
		record(name, false, "响应缺少缺口明细: %s", body)
		return
	}

	stockAfter, err := getStock(token, productID)
	if err != nil {
		record(name, false, "查询库存失败: %v", err)
		return
	}
	ordersAfter, err := countOrders(token)
	if err != nil {
		record(name, false, "查询订单失败: %v", err)
		return
	}
	if stockAfter != stockBefore || ordersAfter != ordersBefore {
		record(name, false, "库存 %d→%d, 订单数 %d→%d, 期望均不变",
			stockBefore, stockAfter, ordersBefore, ordersAfter)
		return
	}
	record(name, true, "被拒后库存与订单数均未变化，并带缺口明细")
}

// 场景：勾选部分条目下单，只移除选中的购物车行，未选中的行保留。
func testSelectedItemsRemovesOnlyChosenRows(token string, addressID, productID int64) {
	const name = "勾选下单只清选中行"

	// 不同尺码 → 两条独立的购物车行
	chosenID, err := addCartItem(token, productID, "M")
	if err != nil {
		record(name, false, "加购失败: %v", err)
		return
	}
	keptID, err := addCartItem(token, productID, "L")
	if err != nil {
		record(name, false, "加购失败: %v", err)
		return
	}

	stockBefore, err := getStock(token, productID)
	if err != nil {
		record(name, false, "查询库存失败: %v", err)
		return
	}

	status, body, err := checkoutSelected(token, addressID, []int64{chosenID})
	if err != nil {
		record(name, false, "请求失败: %v", err)
		return
	}
	if status != 201 {
		record(name, false, "状态码 = %d, 期望 201, body=%s", status, body)
		return
	}

	remaining, err := listCartItemIDs(token)
	if err != nil {
		record(name, false, "查询购物车失败: %v", err)
		return
	}
	if len(remaining) != 1 || remaining[0] != keptID {
		record(name, false, "剩余购物车行 = %v, 期望只剩 %d", remaining, keptID)
		return
	}

	stockAfter, err := getStock(token, productID)
	if err != nil {
		record(name, false, "查询库存失败: %v", err)
		return
	}
	if stockAfter != stockBefore-1 {
		record(name, false, "库存 %d→%d, 期望只扣 1 件", stockBefore, stockAfter)
		return
	}
	record(name, true, "选中行已消费移除，未选中行保留，库存只扣选中数量")
}

func printReport() {
	fmt.Println("==========================================")
	fmt.Println("    测试报告")
	fmt.Println("==========================================")
	passed := 0
	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		} else {
			passed++
		}
		fmt.Printf("[%s] %s — %s\n", status, r.Name, r.Message)
	}
	fmt.Printf("\n%d/%d 通过\n", passed, len(results))
}

// ---- HTTP 辅助 ----

func prepareUser(email string) (token string, addressID int64, err error) {
	password := "testpass"
	body, _ := json.Marshal(map[string]string{
		"email":      email,
		"first_name": "Contend",
		"password":   password,
	})
	resp, err := http.Post(baseURL+"/api/register", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return "", 0, err
	}
	resp.Body.Close()

	loginBody, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err = http.Post(baseURL+"/api/login", "application/json", bytes.NewBuffer(loginBody))
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	var loginResult struct {
		Code int `json:"code"`
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
		Msg string `json:"msg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResult); err != nil {
		return "", 0, err
	}
	if loginResult.Code != 0 {
		return "", 0, fmt.Errorf("登录失败: %s", loginResult.Msg)
	}

	addrBody, _ := json.Marshal(map[string]interface{}{
		"recipient_name": "Contend Tester",
		"street":         "1 Contention Road",
		"city":           "Testville",
		"state":          "TS",
		"postal_code":    "000000",
		"country":        "CN",
		"phone_number":   "13800000000",
	})
	var addrResult struct {
		Code int `json:"code"`
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
		Msg string `json:"msg"`
	}
	if err := doJSON("POST", baseURL+"/api/addresses", loginResult.Data.Token, addrBody, &addrResult); err != nil {
		return "", 0, err
	}
	if addrResult.Code != 0 {
		return "", 0, fmt.Errorf("创建地址失败: %s", addrResult.Msg)
	}
	return loginResult.Data.Token, addrResult.Data.ID, nil
}

func createProduct(stock int64) (int64, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"name":            fmt.Sprintf("contention-probe-%d", time.Now().UnixNano()),
		"description":     "stock contention test product",
		"price":           1000,
		"available_stock": stock,
		"status":          1,
	})
	req, _ := http.NewRequest("POST", adminURL+"/api/products", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Token", adminToken)

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
		return 0, fmt.Errorf("创建商品失败: %s", result.Msg)
	}
	return result.Data.ID, nil
}

func buyNow(token string, productID, quantity, addressID int64) (int, []byte, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"product_id":     productID,
		"quantity":       quantity,
		"address_id":     addressID,
		"payment_method": "CashOnDelivery",
	})
	return doRaw("POST", baseURL+"/api/checkout/buy-now", token, body)
}

func checkoutSelected(token string, addressID int64, itemIDs []int64) (int, []byte, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"address_id":     addressID,
		"payment_method": "CashOnDelivery",
		"cart_item_ids":  itemIDs,
	})
	return doRaw("POST", baseURL+"/api/checkout/selected", token, body)
}

func addCartItem(token string, productID int64, size string) (int64, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"product_id": productID,
		"quantity":   1,
		"size":       size,
	})
	var result struct {
		Code int `json:"code"`
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
		Msg string `json:"msg"`
	}
	if err := doJSON("POST", baseURL+"/api/cart/items", token, body, &result); err != nil {
		return 0, err
	}
	if result.Code != 0 {
		return 0, fmt.Errorf("加购失败: %s", result.Msg)
	}
	return result.Data.ID, nil
}

func listCartItemIDs(token string) ([]int64, error) {
	var result struct {
		Code int `json:"code"`
		Data struct {
			Items []struct {
				ID int64 `json:"id"`
			} `json:"items"`
		} `json:"data"`
		Msg string `json:"msg"`
	}
	if err := doJSON("GET", baseURL+"/api/cart", token, nil, &result); err != nil {
		return nil, err
	}
	if result.Code != 0 {
		return nil, fmt.Errorf("查询购物车失败: %s", result.Msg)
	}
	ids := make([]int64, 0, len(result.Data.Items))
	for _, it := range result.Data.Items {
		ids = append(ids, it.ID)
	}
	return ids, nil
}

func getStock(token string, productID int64) (int64, error) {
	var result struct {
		Code int `json:"code"`
		Data struct {
			AvailableStock int64 `json:"available_stock"`
		} `json:"data"`
		Msg string `json:"msg"`
	}
	url := fmt.Sprintf("%s/api/products/%d", baseURL, productID)
	if err := doJSON("GET", url, token, nil, &result); err != nil {
		return 0, err
	}
	if result.Code != 0 {
		return 0, fmt.Errorf("查询商品失败: %s", result.Msg)
	}
	return result.Data.AvailableStock, nil
}

func countOrders(token string) (int, error) {
	var result struct {
		Code int               `json:"code"`
		Data []json.RawMessage `json:"data"`
		Msg  string            `json:"msg"`
	}
	if err := doJSON("GET", baseURL+"/api/orders", token, nil, &result); err != nil {
		return 0, err
	}
	if result.Code != 0 {
		return 0, fmt.Errorf("查询订单失败: %s", result.Msg)
	}
	return len(result.Data), nil
}

func doRaw(method, url, token string, body []byte) (int, []byte, error) {
	req, err := http.NewRequest(method, url, bytes.NewBuffer(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
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

func doJSON(method, url, token string, body []byte, out interface{}) error {
	_, raw, err := doRaw(method, url, token, body)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
