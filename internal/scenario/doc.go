// Package scenario は1つのMixでの負荷生成を最初から最後まで実行する。
//
// Engineはウォームアップを1回だけ行い、設定された数のワーカーを
// 並行に動かす。各ワーカーは独立したClientと状態を持ち、終了時に
// 自分のリクエストログとインターバルログを書き出す。
//
// # プリセットシナリオ
//
// - read-heavy: 1_99
// - read-mostly: 10_90
// - balanced: 50_50
// - write-heavy: 90_10
// - quick: 50_50 の短時間実行
//
// # 使用例
//
//	config := scenario.BalancedScenario()
//	config.OutDir = "logs"
//	engine := scenario.New(config)
//	result, err := engine.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Report())
package scenario
